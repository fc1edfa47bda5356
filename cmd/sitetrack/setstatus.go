// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/pipeline"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
)

// setStatusCmd moves a material link along its workflow.
var setStatusCmd = &cobra.Command{
	Use:   "set-status <material-id> [status]",
	Short: "Advance a material link to its next status",
	Long: `Move a material link along ` + strings.Join(page.MaterialStatuses, " -> ") + `.
Without a status the link moves one step. Moving to received stamps the
receipt date and moving to installed stamps the installation date. Backward
moves are rejected.

Needs a source that accepts updates (postgrest, postgres or sqlite).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSetStatus,
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := lookupPage(cfg, page.Materials.Name())
	if err != nil {
		return err
	}
	loc, err := location(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	src, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource(src)

	upd, ok := src.(source.Updater)
	if !ok {
		return exitError(ExitInvalidArgs, "sitetrack: the %s source does not accept updates", src.Name())
	}

	// Read fresh rows only; a snapshot could hold an outdated status.
	opts := pipelineOptions(cfg, loc)
	opts.StateDir = ""
	opts.Limits = nil
	pr := pipeline.Load(ctx, src, p, opts)
	if pr.Err != nil {
		return exitError(ExitTotalFailure, "sitetrack: %s: %v", p.Name(), pr.Err)
	}

	id := args[0]
	rec, ok := findRecord(pr.Records, id)
	if !ok {
		return exitError(ExitInvalidArgs, "sitetrack: no material link with id %q", id)
	}
	to := page.NextMaterialStatus(rec.StatusRaw)
	if len(args) == 2 {
		to = args[1]
	}

	patch, err := page.Transition(rec, to, time.Now().In(loc))
	if err != nil {
		return exitError(ExitInvalidArgs, "sitetrack: material %s: %v", id, err)
	}
	if err := upd.Update(ctx, p.Query().Table, id, patch); err != nil {
		return exitError(ExitTotalFailure, "sitetrack: update material %s: %v", id, err)
	}

	from := rec.StatusRaw
	if from == "" {
		from = "(none)"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Material %s: %s -> %s\n", id, from, patch["material_status"])
	return nil
}

func findRecord(records []record.Record, id string) (record.Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return record.Record{}, false
}
