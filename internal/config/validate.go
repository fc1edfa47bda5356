package config

import (
	"fmt"
	"maps"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/fieldworks/sitetrack/internal/output"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/source"
)

// Validate checks all fields in the config and returns all errors at once.
func Validate(cfg *Config) error {
	var errs []string

	if d := cfg.Source.Driver; d != "" {
		if drivers := source.Drivers(); len(drivers) > 0 && !slices.Contains(drivers, d) {
			errs = append(errs, fmt.Sprintf("source.driver: unknown driver %q (available: %s)", d, strings.Join(drivers, ", ")))
		}
	}
	if cfg.Source.Rate < 0 {
		errs = append(errs, fmt.Sprintf("source.rate: must be non-negative, got %g", cfg.Source.Rate))
	}
	if t := cfg.Source.Timeout; t != "" {
		if d, err := time.ParseDuration(t); err != nil {
			errs = append(errs, fmt.Sprintf("source.timeout: invalid duration %q", t))
		} else if d < 0 {
			errs = append(errs, fmt.Sprintf("source.timeout: must be non-negative, got %s", t))
		}
	}

	if lat := cfg.Site.Latitude; lat < -90 || lat > 90 {
		errs = append(errs, fmt.Sprintf("site.latitude: must be between -90 and 90, got %g", lat))
	}
	if lon := cfg.Site.Longitude; lon < -180 || lon > 180 {
		errs = append(errs, fmt.Sprintf("site.longitude: must be between -180 and 180, got %g", lon))
	}
	if cfg.Site.RadiusM < 0 {
		errs = append(errs, fmt.Sprintf("site.radius_m: must be non-negative, got %g", cfg.Site.RadiusM))
	}

	if tz := cfg.Timezone; tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Sprintf("timezone: unknown time zone %q", tz))
		}
	}

	if f := cfg.Output.Format; f != "" {
		if _, err := output.GetFormatter(f); err != nil {
			errs = append(errs, fmt.Sprintf("output.format: %v", err))
		}
	}

	if addr := cfg.Server.Addr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			errs = append(errs, fmt.Sprintf("server.addr: %v", err))
		}
	}

	for _, name := range slices.Sorted(maps.Keys(cfg.Pages)) {
		if _, err := page.Get(name); err != nil {
			errs = append(errs, fmt.Sprintf("pages.%s: unknown page", name))
		}
		if l := cfg.Pages[name].Limit; l < 0 {
			errs = append(errs, fmt.Sprintf("pages.%s.limit: must be non-negative, got %d", name, l))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
