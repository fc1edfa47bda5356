package config

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fieldworks/sitetrack/internal/page"
)

// GetValue retrieves a value from a Config by dot-notation key path.
// It returns scalar values as-is, and maps/slices for intermediate nodes.
func GetValue(cfg *Config, keyPath string) (any, error) {
	m, err := configToMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return navigateMap(m, keyPath)
}

// ToMap converts cfg to the generic map form used by FlattenMap.
func ToMap(cfg *Config) (map[string]any, error) {
	return configToMap(cfg)
}

// SetValue sets a value in a raw config map by dot-notation key path,
// creating intermediate maps as needed.
func SetValue(data map[string]any, keyPath string, rawValue string) error {
	parts := strings.Split(keyPath, ".")
	if keyPath == "" || len(parts) == 0 {
		return fmt.Errorf("empty key path")
	}

	// Navigate to the parent, creating intermediate maps.
	current := data
	for _, part := range parts[:len(parts)-1] {
		child, ok := current[part]
		if !ok {
			next := make(map[string]any)
			current[part] = next
			current = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("key %q is not a map", part)
		}
		current = next
	}

	last := parts[len(parts)-1]
	if isListKey(keyPath) {
		current[last] = splitList(rawValue)
		return nil
	}
	current[last] = coerceValue(rawValue)
	return nil
}

// FlattenMap recursively flattens a nested map to dot-notation keys.
func FlattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			maps.Copy(result, FlattenMap(sub, key))
		} else {
			result[key] = v
		}
	}
	return result
}

// ValidateKeyPath checks that a dot-notation key path corresponds to a valid
// Config field. It uses yaml struct tags to build the valid key set.
func ValidateKeyPath(keyPath string) error {
	if keyPath == "" {
		return fmt.Errorf("empty key path")
	}
	parts := strings.Split(keyPath, ".")

	t := reflect.TypeOf(Config{})
	for i, part := range parts {
		switch t.Kind() {
		case reflect.Struct:
			fields := yamlFields(t)
			ft, ok := fields[part]
			if !ok {
				where := "top-level keys"
				if i > 0 {
					where = "keys under " + strings.Join(parts[:i], ".")
				}
				return fmt.Errorf("unknown key %q; valid %s: %s", part, where, sortedKeys(fields))
			}
			t = ft
		case reflect.Map:
			// pages.<name>
			if _, err := page.Get(part); err != nil {
				return fmt.Errorf("unknown page %q; registered pages: %s", part, strings.Join(page.Names(), ", "))
			}
			t = t.Elem()
		default:
			return fmt.Errorf("key %q is a scalar; cannot use sub-keys", strings.Join(parts[:i], "."))
		}
	}
	switch t.Kind() {
	case reflect.Map:
		return fmt.Errorf("%s requires a page name (e.g. %s.deliveries)", keyPath, keyPath)
	case reflect.Struct:
		return fmt.Errorf("%s is a section; valid keys: %s", keyPath, sortedKeys(yamlFields(t)))
	}
	return nil
}

// configToMap marshals a Config to a map via YAML round-trip.
func configToMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// navigateMap traverses a nested map using a dot-notation key path.
func navigateMap(m map[string]any, keyPath string) (any, error) {
	parts := strings.Split(keyPath, ".")
	var current any = m
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q: parent is not a map", part)
		}
		val, exists := cm[part]
		if !exists {
			return nil, fmt.Errorf("key %q not found", keyPath)
		}
		current = val
	}
	return current, nil
}

// coerceValue parses a string into bool, int, float64, or keeps it as string.
func coerceValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Only use float if it has a decimal point (avoid converting "3" to 3.0).
		if strings.Contains(s, ".") {
			return f
		}
	}
	return s
}

// isListKey reports whether keyPath names a list-valued field.
func isListKey(keyPath string) bool {
	return keyPath == "server.cors_origins"
}

func splitList(s string) []any {
	var out []any
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// yamlFields maps yaml tag names of a struct type to their field types.
func yamlFields(t reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type)
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name == "" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		fields[name] = ft
	}
	return fields
}

// sortedKeys returns a comma-separated sorted list of map keys.
func sortedKeys(m map[string]reflect.Type) string {
	return strings.Join(slices.Sorted(maps.Keys(m)), ", ")
}
