// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldworks/sitetrack/internal/config"
	"github.com/fieldworks/sitetrack/internal/controller"
	"github.com/fieldworks/sitetrack/internal/pipeline"
	"github.com/fieldworks/sitetrack/internal/source"
)

// liveOptions selects how a live session keeps its pages current.
type liveOptions struct {
	// watch subscribes to pushed changes when the source supports them.
	watch bool

	// interval reloads every page on a timer. Zero disables polling.
	interval time.Duration

	// reloadDir, when set, is watched for edits to the project config.
	reloadDir string
}

// liveSession feeds a running controller from a source.
type liveSession struct {
	ctrl *controller.Controller
	src  source.Source
	cfg  *config.Config

	mu   sync.Mutex
	opts pipeline.Options
}

func newLiveSession(ctrl *controller.Controller, src source.Source, cfg *config.Config, opts pipeline.Options) *liveSession {
	return &liveSession{ctrl: ctrl, src: src, cfg: cfg, opts: opts}
}

// start launches the session goroutines on g: pushed changes first, then
// an initial refresh once every feed is open, polling and config reloads as
// selected.
func (l *liveSession) start(ctx context.Context, g *errgroup.Group, lo liveOptions) {
	ready := make(chan struct{})
	if sub, ok := l.src.(source.Subscriber); ok && lo.watch {
		g.Go(func() error {
			return l.ctrl.Watch(ctx, sub, controller.WatchOptions{
				Ready:  func() { close(ready) },
				Resync: func(name string) { l.refreshPages(ctx, name) },
			})
		})
	} else {
		if lo.watch {
			slog.Info("source does not push changes; use --interval to poll", "source", l.src.Name())
		}
		close(ready)
	}

	g.Go(func() error {
		select {
		case <-ready:
			l.refresh(ctx)
		case <-ctx.Done():
		}
		return nil
	})

	if lo.interval > 0 {
		g.Go(func() error {
			t := time.NewTicker(lo.interval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					l.refresh(ctx)
				}
			}
		})
	}

	if lo.reloadDir != "" {
		g.Go(func() error {
			if err := watchConfig(ctx, lo.reloadDir, defaultReloadDebounce, func() { l.reload(ctx) }); err != nil {
				slog.Warn("config reload disabled", "error", err)
			}
			return nil
		})
	}
}

// refresh reloads every page. Failures are already visible on the pages.
func (l *liveSession) refresh(ctx context.Context) {
	if err := l.ctrl.Refresh(ctx, l.src, l.options()); err != nil && ctx.Err() == nil {
		slog.Warn("refresh incomplete", "error", err)
	}
}

// refreshPages reloads the named pages, e.g. after their feed reconnected.
func (l *liveSession) refreshPages(ctx context.Context, names ...string) {
	if err := l.ctrl.RefreshPages(ctx, l.src, l.options(), names...); err != nil && ctx.Err() == nil {
		slog.Warn("refresh incomplete", "pages", names, "error", err)
	}
}

func (l *liveSession) options() pipeline.Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts
}

// reload re-reads the configuration and refreshes with its page limits and
// timeout. Settings that shape the controller or the listener only take
// effect on restart.
func (l *liveSession) reload(ctx context.Context) {
	cfg, err := loadConfig()
	if err != nil {
		slog.Warn("config reload rejected", "error", err)
		return
	}
	if cfg.Source != l.cfg.Source || cfg.Site != l.cfg.Site || cfg.Timezone != l.cfg.Timezone || cfg.Server.Addr != l.cfg.Server.Addr {
		slog.Warn("source, site, timezone and server changes apply on restart")
	}

	fresh := pipelineOptions(cfg, l.opts.Location)
	l.mu.Lock()
	l.opts.Limits = fresh.Limits
	l.opts.Timeout = fresh.Timeout
	l.mu.Unlock()

	slog.Info("config reloaded", "dir", projectDir)
	l.refresh(ctx)
}
