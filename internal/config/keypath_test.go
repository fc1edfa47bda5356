package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetValue(t *testing.T) {
	cfg := &Config{
		Source:   SourceConfig{Driver: "sqlite", Rate: 2.5},
		Timezone: "UTC",
		Pages:    map[string]PageConfig{"schedule": {Limit: 100}},
	}

	tests := []struct {
		key  string
		want any
	}{
		{"timezone", "UTC"},
		{"source.driver", "sqlite"},
		{"source.rate", 2.5},
		{"pages.schedule.limit", 100},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			val, err := GetValue(cfg, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, val)
		})
	}

	val, err := GetValue(cfg, "source")
	require.NoError(t, err)
	m, ok := val.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sqlite", m["driver"])
}

func TestGetValue_NotFound(t *testing.T) {
	_, err := GetValue(&Config{}, "site.name")
	assert.Error(t, err)

	_, err = GetValue(&Config{Timezone: "UTC"}, "timezone.zone")
	assert.ErrorContains(t, err, "parent is not a map")
}

func TestSetValue(t *testing.T) {
	data := map[string]any{"timezone": "UTC"}

	require.NoError(t, SetValue(data, "source.driver", "json"))
	require.NoError(t, SetValue(data, "source.rate", "2.5"))
	require.NoError(t, SetValue(data, "pages.deliveries.enabled", "false"))
	require.NoError(t, SetValue(data, "pages.deliveries.limit", "20"))
	require.NoError(t, SetValue(data, "server.cors_origins", "*"))

	assert.Equal(t, map[string]any{
		"timezone": "UTC",
		"source":   map[string]any{"driver": "json", "rate": 2.5},
		"pages":    map[string]any{"deliveries": map[string]any{"enabled": false, "limit": 20}},
		"server":   map[string]any{"cors_origins": []any{"*"}},
	}, data)

	assert.ErrorContains(t, SetValue(data, "timezone.zone", "x"), "not a map")
	assert.Error(t, SetValue(data, "", "x"))
}

func TestFlattenMap(t *testing.T) {
	m, err := ToMap(&Config{
		Source: SourceConfig{Driver: "json", Dir: "data"},
		Pages:  map[string]PageConfig{"schedule": {Limit: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"source.driver":        "json",
		"source.dir":           "data",
		"pages.schedule.limit": 5,
	}, FlattenMap(m, ""))
}

func TestValidateKeyPath(t *testing.T) {
	valid := []string{
		"timezone", "state_dir", "source.driver", "source.key_env", "site.radius_m",
		"output.format", "server.cors_origins", "pages.deliveries.enabled", "pages.schedule.limit",
	}
	for _, k := range valid {
		assert.NoError(t, ValidateKeyPath(k), k)
	}

	invalid := map[string]string{
		"":                       "empty key path",
		"colour":                 `unknown key "colour"; valid top-level keys:`,
		"source.password":        `unknown key "password"; valid keys under source:`,
		"timezone.zone":          `key "timezone" is a scalar`,
		"pages":                  "requires a page name",
		"pages.nope.limit":       `unknown page "nope"`,
		"pages.deliveries":       "is a section",
		"site":                   "is a section",
		"pages.deliveries.color": `unknown key "color"`,
	}
	for k, want := range invalid {
		err := ValidateKeyPath(k)
		if assert.Error(t, err, k) {
			assert.Contains(t, err.Error(), want, k)
		}
	}
}

func TestCoerceValue(t *testing.T) {
	assert.Equal(t, true, coerceValue("true"))
	assert.Equal(t, false, coerceValue("false"))
	assert.Equal(t, 42, coerceValue("42"))
	assert.Equal(t, 1.5, coerceValue("1.5"))
	assert.Equal(t, "1e3", coerceValue("1e3"))
	assert.Equal(t, "America/Chicago", coerceValue("America/Chicago"))
}
