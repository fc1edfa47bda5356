package main

import (
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fieldworks/sitetrack/internal/controller"
	"github.com/fieldworks/sitetrack/internal/metrics"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/server"
)

// Serve command flags.
var (
	serveAddr     string
	serveCORS     []string
	serveInterval time.Duration
	serveNoWatch  bool
	serveNoReload bool
)

// listen opens the server socket. Tests replace it to learn the port.
var listen = net.Listen

// serveCmd runs the dashboard HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboards over HTTP with live updates",
	Long: `Serve every enabled page as an HTML dashboard, a JSON view model and a
CSV download, with Prometheus metrics at /metrics.

Pages stay current through the source's change feed (realtime, LISTEN/NOTIFY
or file watching), optional polling with --interval, and reloads of the
project config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, else :8080)")
	serveCmd.Flags().StringSliceVar(&serveCORS, "cors-origin", nil, "allowed CORS origin, repeatable; * allows all")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "reload every page on this interval (0 disables polling)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not subscribe to source changes")
	serveCmd.Flags().BoolVar(&serveNoReload, "no-reload", false, "do not reload when the config file changes")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if len(serveCORS) > 0 {
		cfg.Server.CORSOrigins = serveCORS
	}
	pages := enabledPages(cfg)
	if len(pages) == 0 {
		return exitError(ExitInvalidArgs, "sitetrack: every page is disabled in the configuration")
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.MustNewMetrics(reg)

	ctrl := controller.New(pages, controller.Options{
		Location:    loc,
		Site:        cfg.ViewSite(),
		OnRecompute: m.ObserveRecompute,
		OnChange:    m.IncChange,
	})
	opts := pipelineOptions(cfg, loc)
	opts.Observe = func(p page.Page, d time.Duration, err error) {
		m.ObserveQuery(src.Name(), p.Query().Table, d, err)
	}

	srv := server.New(ctrl, server.Options{
		Addr:        cfg.Server.Addr,
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     m,
		Gatherer:    reg,
	})
	ln, err := listen("tcp", cfg.Server.Addr)
	if err != nil {
		return exitError(ExitInvalidArgs, "sitetrack: listen %s: %v", cfg.Server.Addr, err)
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return ctrl.Run(ctx) })

	lo := liveOptions{watch: !serveNoWatch, interval: serveInterval}
	if !serveNoReload {
		lo.reloadDir = projectDir
	}
	newLiveSession(ctrl, src, cfg, opts).start(ctx, g, lo)

	g.Go(func() error { return srv.Serve(ctx, ln) })
	if err := g.Wait(); err != nil {
		return exitError(ExitTotalFailure, "sitetrack: %v", err)
	}
	return nil
}
