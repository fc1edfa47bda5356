// Package config handles .sitetrack.yaml and .sitetrack.toml configuration
// files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/view"
)

// Config represents the contents of a .sitetrack.yaml file.
type Config struct {
	Source   SourceConfig          `yaml:"source,omitempty" toml:"source,omitempty"`
	Site     SiteConfig            `yaml:"site,omitempty" toml:"site,omitempty"`
	Timezone string                `yaml:"timezone,omitempty" toml:"timezone,omitempty"`
	StateDir string                `yaml:"state_dir,omitempty" toml:"state_dir,omitempty"`
	Output   OutputConfig          `yaml:"output,omitempty" toml:"output,omitempty"`
	Server   ServerConfig          `yaml:"server,omitempty" toml:"server,omitempty"`
	Pages    map[string]PageConfig `yaml:"pages,omitempty" toml:"pages,omitempty"`
}

// SourceConfig selects and configures the record source driver. Secrets are
// never stored in the file; KeyEnv and DSNEnv name the environment variables
// holding them.
type SourceConfig struct {
	Driver  string  `yaml:"driver,omitempty" toml:"driver,omitempty"`
	URL     string  `yaml:"url,omitempty" toml:"url,omitempty"`
	KeyEnv  string  `yaml:"key_env,omitempty" toml:"key_env,omitempty"`
	DSNEnv  string  `yaml:"dsn_env,omitempty" toml:"dsn_env,omitempty"`
	Path    string  `yaml:"path,omitempty" toml:"path,omitempty"`
	Dir     string  `yaml:"dir,omitempty" toml:"dir,omitempty"`
	Rate    float64 `yaml:"rate,omitempty" toml:"rate,omitempty"`
	Timeout string  `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// SiteConfig is the project site used for the tracker geofence.
type SiteConfig struct {
	Name      string  `yaml:"name,omitempty" toml:"name,omitempty"`
	Latitude  float64 `yaml:"latitude,omitempty" toml:"latitude,omitempty"`
	Longitude float64 `yaml:"longitude,omitempty" toml:"longitude,omitempty"`
	RadiusM   float64 `yaml:"radius_m,omitempty" toml:"radius_m,omitempty"`
}

// OutputConfig holds CLI rendering defaults.
type OutputConfig struct {
	Format  string `yaml:"format,omitempty" toml:"format,omitempty"`
	NoColor bool   `yaml:"no_color,omitempty" toml:"no_color,omitempty"`
}

// ServerConfig configures sitetrack serve.
type ServerConfig struct {
	Addr        string   `yaml:"addr,omitempty" toml:"addr,omitempty"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" toml:"cors_origins,omitempty"`
}

// PageConfig holds per-page settings.
type PageConfig struct {
	Enabled *bool `yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Limit   int   `yaml:"limit,omitempty" toml:"limit,omitempty"`
}

// File names looked up in a project directory, in order.
const (
	FileName     = ".sitetrack.yaml"
	TOMLFileName = ".sitetrack.toml"
)

// Environment variables read when the config leaves a setting empty.
const (
	EnvURL = "SUPABASE_URL"
	EnvKey = "SUPABASE_ANON_KEY"
	EnvDSN = "DATABASE_URL"
)

// Defaults returns the built-in configuration every file is merged over.
func Defaults() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:  "postgrest",
			KeyEnv:  EnvKey,
			DSNEnv:  EnvDSN,
			Rate:    10,
			Timeout: "15s",
		},
		Site: SiteConfig{
			Name:      view.DefaultSite.Name,
			Latitude:  view.DefaultSite.Lat,
			Longitude: view.DefaultSite.Lon,
			RadiusM:   view.DefaultSite.RadiusM,
		},
		Timezone: "UTC",
		StateDir: ".",
		Server:   ServerConfig{Addr: ":8080"},
	}
}

// ApplyEnv fills the source URL from the environment when it is unset.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if cfg.Source.URL == "" {
		cfg.Source.URL = getenv(EnvURL)
	}
}

// SourceOptions resolves the driver options, reading secrets from the
// environment variables the config names.
func (c *Config) SourceOptions(getenv func(string) string) (source.Options, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	opts := source.Options{
		URL:  c.Source.URL,
		Path: c.Source.Path,
		Dir:  c.Source.Dir,
		Rate: c.Source.Rate,
	}
	if c.Source.KeyEnv != "" {
		opts.Key = getenv(c.Source.KeyEnv)
	}
	if c.Source.DSNEnv != "" {
		opts.DSN = getenv(c.Source.DSNEnv)
	}
	if c.Source.Timeout != "" {
		d, err := time.ParseDuration(c.Source.Timeout)
		if err != nil {
			return source.Options{}, fmt.Errorf("source.timeout: %w", err)
		}
		opts.Timeout = d
	}
	return opts, nil
}

// Location loads the configured time zone. Empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// ViewSite converts the site settings for the view model.
func (c *Config) ViewSite() view.Site {
	return view.Site{
		Name:    c.Site.Name,
		Lat:     c.Site.Latitude,
		Lon:     c.Site.Longitude,
		RadiusM: c.Site.RadiusM,
	}
}

// Limits returns the row caps of pages that set one.
func (c *Config) Limits() map[string]int {
	out := make(map[string]int)
	for name, pc := range c.Pages {
		if pc.Limit > 0 {
			out[name] = pc.Limit
		}
	}
	return out
}

// Enabled reports whether a page is on. Pages are on unless disabled.
func (c *Config) Enabled(name string) bool {
	pc, ok := c.Pages[name]
	return !ok || pc.Enabled == nil || *pc.Enabled
}
