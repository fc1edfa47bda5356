// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fieldworks/sitetrack/internal/controller"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/report"
	"github.com/fieldworks/sitetrack/internal/view"
)

// Watch command flags.
var (
	watchSections  string
	watchInterval  time.Duration
	watchNoHistory bool
	watchFilters   filterFlags
)

// watchCmd re-renders one page on every change.
var watchCmd = &cobra.Command{
	Use:   "watch <page>",
	Short: "Re-render a dashboard page whenever its data changes",
	Long: `Render one dashboard page to the terminal and render it again after every
change the source pushes, every --interval reload and every edit of the
project config file. Stop with Ctrl-C.

` + describePages(),
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSections, "sections", "", "comma-separated report sections (default: all that apply)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "reload the page on this interval (0 disables polling)")
	watchCmd.Flags().BoolVar(&watchNoHistory, "no-history", false, "do not record refreshes in the status history")
	watchFilters.register(watchCmd.Flags())
}

func runWatch(cmd *cobra.Command, args []string) error {
	sections, err := report.ResolveSections(splitList(watchSections))
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
	fs, err := watchFilters.state(p)
	if err != nil {
		return err
	}
	month, err := watchFilters.monthDate()
	if err != nil {
		return err
	}
	loc, err := location(cfg)
	if err != nil {
		return err
	}

	src, err := openSource(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeSource(src)

	ctrl := controller.New([]page.Page{p}, controller.Options{Location: loc, Site: cfg.ViewSite()})
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return ctrl.Run(ctx) })
	newLiveSession(ctrl, src, cfg, pipelineOptions(cfg, loc)).start(ctx, g, liveOptions{
		watch:     true,
		interval:  watchInterval,
		reloadDir: projectDir,
	})

	w := cmd.OutOrStdout()
	g.Go(func() error {
		renders := 0
		for {
			select {
			case <-ctx.Done():
				return nil
			case u, ok := <-updates:
				if !ok {
					return nil
				}
				if u.Page != p.Name() {
					continue
				}
				v, err := ctrl.ViewOf(ctx, p.Name(), fs, month)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					slog.Warn("view unavailable", "page", p.Name(), "error", err)
					continue
				}
				in := &report.Input{View: v, History: history(cfg, v, time.Now().In(loc), recordsHistory(u, v))}
				clearScreen(w, renders)
				if err := report.Render(w, in, sections); err != nil {
					return exitError(ExitTotalFailure, "sitetrack: %v", err)
				}
				renders++
			}
		}
	})
	return g.Wait()
}

// recordsHistory reports whether a render adds a history entry. Only whole
// table loads count.
func recordsHistory(u controller.Update, v *view.View) bool {
	return u.Reloaded && !watchNoHistory && v.Error == ""
}

// clearScreen clears a terminal before each redraw, or separates renders
// with a rule when output is not a terminal.
func clearScreen(w io.Writer, renders int) {
	if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			_, _ = io.WriteString(w, "\x1b[H\x1b[2J")
			return
		}
	}
	if renders > 0 {
		_, _ = io.WriteString(w, "\n"+strings.Repeat("-", 72)+"\n\n")
	}
}
