// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/fieldworks/sitetrack/internal/config"
	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/pipeline"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/redact"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/view"
)

// flagConfig holds the settings given as global flags. It is merged last.
func flagConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			Driver: sourceFlags.driver,
			URL:    sourceFlags.url,
			Path:   sourceFlags.path,
			Dir:    sourceFlags.dir,
		},
		Timezone: timezone,
		StateDir: stateDir,
		Output:   config.OutputConfig{NoColor: noColor},
	}
}

// loadConfig resolves the effective configuration: built-in defaults, the
// global file, the project file, then command-line flags.
func loadConfig() (*config.Config, error) {
	global, err := config.LoadGlobal()
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "sitetrack: global config: %v", err)
	}
	project, err := config.Load(projectDir)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "sitetrack: project config: %v", err)
	}

	cfg := config.Merge(config.Defaults(), global)
	cfg = config.Merge(cfg, project)
	cfg = config.Merge(cfg, flagConfig())
	config.ApplyEnv(cfg, os.Getenv)

	if err := config.Validate(cfg); err != nil {
		return nil, exitError(ExitInvalidArgs, "sitetrack: %v", err)
	}
	if cfg.Output.NoColor {
		color.NoColor = true
	}
	return cfg, nil
}

// openSource opens the configured driver. Secrets it resolves from the
// environment are registered for redaction first.
func openSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	opts, err := cfg.SourceOptions(os.Getenv)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "sitetrack: %v", err)
	}
	redact.Register(opts.Key, opts.DSN)
	opts.Path = projectPath(opts.Path)
	opts.Dir = projectPath(opts.Dir)

	src, err := source.Open(ctx, cfg.Source.Driver, opts)
	if err != nil {
		return nil, exitError(ExitTotalFailure, "sitetrack: open %s source: %v", cfg.Source.Driver, err)
	}
	slog.Debug("source opened", "driver", cfg.Source.Driver)
	return src, nil
}

// projectPath resolves a relative config path against the project directory.
func projectPath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}

func closeSource(src source.Source) {
	if c, ok := src.(source.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("close source", "source", src.Name(), "error", err)
		}
	}
}

// pipelineOptions maps the configuration onto page loading. Timeout and
// location were checked by config.Validate.
func pipelineOptions(cfg *config.Config, loc *time.Location) pipeline.Options {
	opts := pipeline.Options{
		Location: loc,
		StateDir: projectPath(cfg.StateDir),
		Limits:   cfg.Limits(),
	}
	if cfg.Source.Timeout != "" {
		opts.Timeout, _ = time.ParseDuration(cfg.Source.Timeout)
	}
	return opts
}

func location(cfg *config.Config) (*time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "sitetrack: %v", err)
	}
	return loc, nil
}

// enabledPages returns the registered pages the configuration leaves on.
func enabledPages(cfg *config.Config) []page.Page {
	var out []page.Page
	for _, p := range page.List() {
		if cfg.Enabled(p.Name()) {
			out = append(out, p)
		}
	}
	return out
}

// lookupPage resolves a page argument, rejecting pages the configuration
// turned off.
func lookupPage(cfg *config.Config, name string) (page.Page, error) {
	p, err := page.Get(name)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "sitetrack: %v", err)
	}
	if !cfg.Enabled(p.Name()) {
		return nil, exitError(ExitInvalidArgs, "sitetrack: page %q is disabled in the configuration", p.Name())
	}
	return p, nil
}

// buildView renders a loaded page the way the controller does for served
// pages, carrying the load error and staleness into the view.
func buildView(cfg *config.Config, pr pipeline.PageResult, fs filter.State, month record.Date, now time.Time) *view.View {
	today := record.DateOf(now)
	filtered := filter.Apply(pr.Records, fs, today)
	v := view.Build(pr.Page, pr.Records, filtered, today, view.Options{
		Filter: fs,
		Site:   cfg.ViewSite(),
		Month:  month,
		Now:    now,
	})
	if pr.Err != nil {
		v.Error = pr.Err.Error()
	}
	v.Stale = pr.Stale
	v.FetchedAt = pr.FetchedAt
	return v
}

// loadResultError maps a page result onto the exit code contract: no rows
// at all is a total failure, a snapshot fallback a partial one.
func loadResultError(pr pipeline.PageResult) error {
	switch {
	case pr.OK():
		return nil
	case pr.Available():
		return exitError(ExitPartialFailure, "sitetrack: %s: showing last snapshot: %v", pr.Page.Name(), pr.Err)
	default:
		return exitError(ExitTotalFailure, "sitetrack: %s: %v", pr.Page.Name(), pr.Err)
	}
}
