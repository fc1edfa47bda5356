// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sitelog "github.com/fieldworks/sitetrack/internal/log"

	// Source drivers register themselves.
	_ "github.com/fieldworks/sitetrack/internal/source/jsonfile"
	_ "github.com/fieldworks/sitetrack/internal/source/pgsql"
	_ "github.com/fieldworks/sitetrack/internal/source/postgrest"
	_ "github.com/fieldworks/sitetrack/internal/source/sqlite"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
	logJSON bool

	projectDir string
	sourceFlags struct {
		driver string
		url    string
		path   string
		dir    string
	}
	timezone string
	stateDir string
)

// rootCmd is the base command for sitetrack.
var rootCmd = &cobra.Command{
	Use:   "sitetrack",
	Short: "Operational dashboards for a construction project",
	Long: `Sitetrack renders the project's operational dashboards: procurement,
shipments, delivery dates, the project schedule, material tracking, site-plan
assets and GPS trackers. Pages load from a hosted REST backend, PostgreSQL,
SQLite or plain JSON files and render to the terminal, to json, markdown,
csv or html, or live over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		sitelog.SetupWriter(cmd.ErrOrStderr(), verbose, quiet, logJSON)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")
	pf.StringVarP(&projectDir, "dir", "C", ".", "project directory holding .sitetrack.yaml")
	pf.StringVar(&sourceFlags.driver, "driver", "", "source driver (json, postgres, postgrest, sqlite)")
	pf.StringVar(&sourceFlags.url, "source-url", "", "REST backend URL")
	pf.StringVar(&sourceFlags.path, "source-path", "", "SQLite database path")
	pf.StringVar(&sourceFlags.dir, "source-dir", "", "directory of JSON table files")
	pf.StringVar(&timezone, "timezone", "", "time zone that decides today (e.g. America/Chicago)")
	pf.StringVar(&stateDir, "state-dir", "", "directory for the snapshot cache and status history")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(setStatusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
