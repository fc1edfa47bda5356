package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Register a driver so source.driver is checked.
	_ "github.com/fieldworks/sitetrack/internal/source/jsonfile"
	_ "github.com/fieldworks/sitetrack/internal/source/postgrest"
)

func TestValidate_Empty(t *testing.T) {
	assert.NoError(t, Validate(&Config{}))
}

func TestValidate_Valid(t *testing.T) {
	cfg := &Config{
		Source:   SourceConfig{Driver: "json", Dir: "data", Rate: 1, Timeout: "5s"},
		Site:     SiteConfig{Latitude: -33.9, Longitude: 151.2, RadiusM: 100},
		Timezone: "Australia/Sydney",
		Output:   OutputConfig{Format: "csv"},
		Server:   ServerConfig{Addr: "127.0.0.1:8080"},
		Pages:    map[string]PageConfig{"deliveries": {Limit: 10}},
	}
	assert.NoError(t, Validate(cfg))
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		Source:   SourceConfig{Driver: "oracle", Rate: -1, Timeout: "soon"},
		Site:     SiteConfig{Latitude: 91, Longitude: -181, RadiusM: -5},
		Timezone: "Mars/Olympus",
		Output:   OutputConfig{Format: "sarif"},
		Server:   ServerConfig{Addr: "8080"},
		Pages:    map[string]PageConfig{"nope": {}, "schedule": {Limit: -1}},
	}
	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{
		"config validation failed:",
		`source.driver: unknown driver "oracle"`,
		"source.rate: must be non-negative, got -1",
		`source.timeout: invalid duration "soon"`,
		"site.latitude: must be between -90 and 90, got 91",
		"site.longitude: must be between -180 and 180, got -181",
		"site.radius_m: must be non-negative, got -5",
		`timezone: unknown time zone "Mars/Olympus"`,
		`output.format: unknown format: "sarif"`,
		"server.addr:",
		"pages.nope: unknown page",
		"pages.schedule.limit: must be non-negative, got -1",
	} {
		assert.Contains(t, msg, want)
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	err := Validate(&Config{Source: SourceConfig{Timeout: "-1s"}})
	assert.ErrorContains(t, err, "source.timeout: must be non-negative")
}
