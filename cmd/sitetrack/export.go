package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldworks/sitetrack/internal/output"
	"github.com/fieldworks/sitetrack/internal/pipeline"
)

// Export command flags.
var (
	exportFormat  string
	exportOutput  string
	exportCompact bool
	exportFilters filterFlags
)

// exportCmd writes a dashboard page in a machine or document format.
var exportCmd = &cobra.Command{
	Use:   "export <page>",
	Short: "Export a dashboard page as json, markdown, csv or html",
	Long: `Load one dashboard page and write it in the chosen format. CSV holds the
filtered record table as shown on the dashboard; json holds the whole view
model; html is a self-contained copy of the dashboard.

` + describePages(),
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "output format: csv, html, json, markdown (default from config, else json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportCompact, "compact", false, "compact JSON even on a terminal")
	exportFilters.register(exportCmd.Flags())
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := exportFormat
	if name == "" {
		name = cfg.Output.Format
	}
	if name == "" {
		name = "json"
	}
	f, err := output.GetFormatter(name)
	if err != nil {
		return exitError(ExitInvalidArgs, "sitetrack: %v", err)
	}
	if _, ok := f.(*output.JSONFormatter); ok && exportCompact {
		f = &output.JSONFormatter{Compact: true}
	}

	p, err := lookupPage(cfg, args[0])
	if err != nil {
		return err
	}
	fs, err := exportFilters.state(p)
	if err != nil {
		return err
	}
	month, err := exportFilters.monthDate()
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
	v := buildView(cfg, pr, fs, month, time.Now().In(loc))

	w, done, err := openOutput(cmd, exportOutput)
	if err != nil {
		return err
	}
	if err := f.Format(v, w); err != nil {
		_ = done()
		return exitError(ExitTotalFailure, "sitetrack: %v", err)
	}
	if err := done(); err != nil {
		return exitError(ExitTotalFailure, "sitetrack: write %s: %v", exportOutput, err)
	}
	if exportOutput != "" {
		printf(cmd, "Wrote %s (%d records) to %s\n", p.Name(), len(v.Table.Rows), exportOutput)
	}
	return loadResultError(pr)
}
