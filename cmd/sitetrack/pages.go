// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/report"
)

// pagesCmd lists the dashboard pages.
var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List the dashboard pages",
	Long: `List every dashboard page with its backend table, filter fields and
whether the configuration leaves it enabled.`,
	Args: cobra.NoArgs,
	RunE: runPages,
}

func runPages(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t := report.NewTable(
		report.Column{Header: "Page"},
		report.Column{Header: "Title"},
		report.Column{Header: "Table"},
		report.Column{Header: "Filters", MaxWidth: 40},
		report.Column{Header: "Limit", Align: report.AlignRight},
		report.Column{Header: "Enabled", Color: report.ColorYesNo},
	)
	limits := cfg.Limits()
	for _, p := range page.List() {
		limit := "-"
		if n, ok := limits[p.Name()]; ok {
			limit = strconv.Itoa(n)
		}
		enabled := "no"
		if cfg.Enabled(p.Name()) {
			enabled = "yes"
		}
		t.AddRow(p.Name(), p.Title(), p.Query().Table, strings.Join(p.Filters(), ", "), limit, enabled)
	}
	return t.Render(cmd.OutOrStdout())
}
