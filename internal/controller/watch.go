package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/fieldworks/sitetrack/internal/source"
)

// ErrFeedClosed is the page error once a change feed ends while the page is
// still watched.
var ErrFeedClosed = errors.New("live updates stopped")

// WatchOptions hooks into Watch.
type WatchOptions struct {
	// Ready is called once every page's subscription has been opened or
	// has failed. Changes the source makes after that reach the pages.
	Ready func()

	// Resync is called when a feed is back after an interruption. The
	// changes it missed are gone, so the page should be reloaded.
	Resync func(page string)
}

// Watch subscribes to the table of every page and forwards each change as a
// Patch event. A page whose subscription cannot be opened gets a Failed
// event; the others keep running. An interrupted feed marks its page failed
// until the feed is back. Watch returns when ctx is done or every
// subscription has closed.
func (c *Controller) Watch(ctx context.Context, src source.Subscriber, wo WatchOptions) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range c.Pages() {
		name, tbl := p.Name(), p.Query().Table
		changes, err := src.Subscribe(ctx, tbl)
		if err != nil {
			slog.Warn("subscribe failed", "page", name, "table", tbl, "error", err)
			if err := c.Send(ctx, Failed{Page: name, Err: err}); err != nil {
				break
			}
			continue
		}
		slog.Debug("watching", "page", name, "table", tbl)

		g.Go(func() error {
			c.follow(ctx, name, changes, wo.Resync)
			return nil
		})
	}
	if wo.Ready != nil {
		wo.Ready()
	}
	return g.Wait()
}

func (c *Controller) follow(ctx context.Context, name string, changes <-chan source.Change, resync func(string)) {
	for ch := range changes {
		var ev Event
		switch ch.Type {
		case source.Interrupted:
			ev = Failed{Page: name, Err: fmt.Errorf("live updates interrupted: %w", ch.Err)}
		case source.Resync:
			slog.Info("live updates resumed", "page", name)
			if resync != nil {
				resync(name)
			}
			continue
		default:
			ev = Patch{Page: name, Change: ch}
		}
		if err := c.Send(ctx, ev); err != nil {
			// ctx is done; drain until the source closes the channel.
			for range changes {
			}
			return
		}
	}
	if ctx.Err() == nil {
		slog.Warn("live updates stopped", "page", name)
		_ = c.Send(ctx, Failed{Page: name, Err: ErrFeedClosed})
	}
}
