package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldworks/sitetrack/internal/config"
	"github.com/fieldworks/sitetrack/internal/pipeline"
	"github.com/fieldworks/sitetrack/internal/report"
	"github.com/fieldworks/sitetrack/internal/state"
	"github.com/fieldworks/sitetrack/internal/view"
)

// Report command flags.
var (
	reportSections  string
	reportOutput    string
	reportNoHistory bool
	reportFilters   filterFlags
)

// reportCmd renders one dashboard page to the terminal.
var reportCmd = &cobra.Command{
	Use:   "report <page>",
	Short: "Render a dashboard page to the terminal",
	Long: `Load one dashboard page and print its summary, breakdowns, record
table and page-specific panels (schedule health, timeline, calendar, tracker
map, zones, procurement totals).

A page that fails to load falls back to its last snapshot with an error
banner and exit code 2. With no snapshot the command exits with code 3.

` + describePages(),
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportSections, "sections", "", "comma-separated report sections (default: all that apply)")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write the report to a file instead of stdout")
	reportCmd.Flags().BoolVar(&reportNoHistory, "no-history", false, "do not record this refresh in the status history")
	reportFilters.register(reportCmd.Flags())
}

func runReport(cmd *cobra.Command, args []string) error {
	sections, err := report.ResolveSections(splitList(reportSections))
	if err != nil {
		return exitError(ExitInvalidArgs, "sitetrack: %v", err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := lookupPage(cfg, args[0])
	if err != nil {
		return err
	}
	fs, err := reportFilters.state(p)
	if err != nil {
		return err
	}
	month, err := reportFilters.monthDate()
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

	pr := pipeline.Load(ctx, src, p, pipelineOptions(cfg, loc))
	if !pr.Available() {
		return loadResultError(pr)
	}

	now := time.Now().In(loc)
	v := buildView(cfg, pr, fs, month, now)
	in := &report.Input{View: v, History: history(cfg, v, now, !reportNoHistory && pr.OK())}

	w, done, err := openOutput(cmd, reportOutput)
	if err != nil {
		return err
	}
	if err := report.Render(w, in, sections); err != nil {
		_ = done()
		return exitError(ExitTotalFailure, "sitetrack: %v", err)
	}
	if err := done(); err != nil {
		return exitError(ExitTotalFailure, "sitetrack: write %s: %v", reportOutput, err)
	}
	return loadResultError(pr)
}

// history returns the page's status history, first appending v's counts
// when save is set. Callers save only fresh loads.
func history(cfg *config.Config, v *view.View, now time.Time, save bool) *state.History {
	root := projectPath(cfg.StateDir)
	if root == "" {
		return nil
	}
	name := v.Page
	if save {
		h, err := state.Record(root, name, state.BuildHistoryEntry(v.Stats, now))
		if err != nil {
			slog.Warn("status history not saved", "page", name, "error", err)
			return nil
		}
		return h
	}
	h, err := state.LoadHistory(root, name)
	if err != nil {
		slog.Warn("status history unreadable", "page", name, "error", err)
		return nil
	}
	return h
}

// openOutput returns stdout or the named file. done closes the file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path) //nolint:gosec // user-supplied output path
	if err != nil {
		return nil, nil, exitError(ExitInvalidArgs, "sitetrack: cannot create output file: %v", err)
	}
	return f, f.Close, nil
}

// printf writes a status line to stderr unless --quiet is set.
func printf(cmd *cobra.Command, format string, args ...any) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}
