package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fieldworks/sitetrack/internal/bootstrap"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a starter sitetrack configuration",
	Long: `Initialize a sitetrack project by detecting its data source and writing
a starter .sitetrack.yaml. The driver is picked from SUPABASE_URL, then
DATABASE_URL, then a SQLite file in the directory, then JSON tables under data/.
An existing .gitignore gets an entry for the .sitetrack/ snapshot cache.

Existing files are kept. Use --force to regenerate .sitetrack.yaml.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := projectDir
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return exitError(ExitInvalidArgs, "sitetrack: cannot resolve path %q (%v)", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return exitError(ExitInvalidArgs, "sitetrack: path %q does not exist", dir)
	}
	if !info.IsDir() {
		return exitError(ExitInvalidArgs, "sitetrack: %q is not a directory", dir)
	}

	slog.Info("initializing sitetrack", "path", abs)
	result, err := bootstrap.Run(bootstrap.InitConfig{Dir: abs, Force: initForce})
	if err != nil {
		return fmt.Errorf("sitetrack: init failed (%v)", err)
	}

	w := cmd.OutOrStdout()
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	_, _ = fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "sitetrack init complete")
	_, _ = fmt.Fprintln(w)

	changed := false
	for _, a := range result.Actions {
		var prefix string
		switch a.Operation {
		case "created":
			prefix = green.Sprint("  + ")
			changed = true
		case "updated":
			prefix = yellow.Sprint("  ~ ")
			changed = true
		default:
			prefix = dim.Sprint("  - ")
		}
		_, _ = fmt.Fprintf(w, "%s%-20s %s\n", prefix, a.File, dim.Sprintf("(%s)", a.Description))
	}

	if changed {
		_, _ = fmt.Fprintln(w)
		_, _ = bold.Fprintln(w, "Next steps:")
		_, _ = fmt.Fprintln(w, "  1. Review .sitetrack.yaml and adjust the site and page settings")
		_, _ = fmt.Fprintln(w, "  2. Run: sitetrack report deliveries")
		_, _ = fmt.Fprintln(w, "  3. Serve the dashboard: sitetrack serve")
	}
	_, _ = fmt.Fprintln(w)
	return nil
}
