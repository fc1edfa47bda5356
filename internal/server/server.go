// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package server serves dashboard pages over HTTP: HTML dashboards, the JSON
// view model, CSV downloads, Prometheus metrics and a websocket that pushes
// every recomputed view.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fieldworks/sitetrack/internal/controller"
	"github.com/fieldworks/sitetrack/internal/metrics"
	"github.com/fieldworks/sitetrack/internal/output"
)

// Defaults for Options left unset.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPingPeriod      = 30 * time.Second
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address for Run.
	Addr string

	// CORSOrigins lists allowed origins. "*" allows all; empty disables CORS.
	CORSOrigins []string

	// Metrics records request counts. Nil records nothing.
	Metrics *metrics.Metrics

	// Gatherer backs /metrics. Nil means the default gatherer.
	Gatherer prometheus.Gatherer

	ShutdownTimeout time.Duration
	PingPeriod      time.Duration
}

// Server is the dashboard HTTP server. It reads views from a running
// controller and never mutates page state.
type Server struct {
	ctrl     *controller.Controller
	opts     Options
	engine   *gin.Engine
	html     *output.HTMLFormatter
	upgrader websocket.Upgrader
	started  time.Time

	// closing is closed when shutdown starts so websocket handlers return.
	closing   chan struct{}
	closeOnce sync.Once
	conns     sync.WaitGroup
}

// New builds a server over ctrl.
func New(ctrl *controller.Controller, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = DefaultPingPeriod
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		ctrl:    ctrl,
		opts:    opts,
		engine:  gin.New(),
		html:    output.NewHTMLFormatter(),
		started: time.Now(),
		closing: make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(opts.CORSOrigins),
		},
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler of s.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	e := s.engine
	e.Use(requestID(), recovery(), requestLogger(), countRequests(s.opts.Metrics))
	if len(s.opts.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		if allowAll(s.opts.CORSOrigins) {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = s.opts.CORSOrigins
		}
		cfg.AllowMethods = []string{http.MethodGet, http.MethodOptions}
		cfg.AllowWebSockets = true
		cfg.ExposeHeaders = []string{headerRequestID, "Content-Disposition"}
		e.Use(cors.New(cfg))
	}

	e.GET("/", s.handleIndex)
	e.GET("/pages/:name", s.handlePage)
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", gin.WrapH(metrics.Handler(s.opts.Gatherer)))
	e.GET("/ws/pages/:name", s.handleWebSocket)

	api := e.Group("/api")
	{
		api.GET("/pages", s.handleListPages)
		api.GET("/pages/:name", s.handleGetPage)
		api.GET("/pages/:name/export.csv", s.handleExport)
	}
}

// Run listens on Options.Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully: open
// requests get ShutdownTimeout to finish and websockets are closed.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("serving dashboards", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		s.closeConns()
		s.conns.Wait()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.closeConns()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.conns.Wait()
	if serveErr := <-errc; serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		err = errors.Join(err, serveErr)
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func (s *Server) closeConns() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func allowAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// originChecker mirrors the CORS origin list for websocket upgrades. With no
// list, only same-host requests are accepted.
func originChecker(origins []string) func(*http.Request) bool {
	if allowAll(origins) {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed[origin] {
			return true
		}
		return origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}
