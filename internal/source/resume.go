package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Feed forwards the changes of one live connection to out. It returns when
// the connection drops, with the reason.
type Feed func(ctx context.Context, out chan<- Change) error

// Dialer opens one connection of a live change feed.
type Dialer func(ctx context.Context) (Feed, error)

// DefaultBackOff is the redial schedule of live feeds: exponential from half
// a second up to 30s between attempts, retrying until the context ends.
func DefaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Resume dials a feed for table and keeps it alive. The first dial error is
// returned as is. After that a dropped connection sends an Interrupted
// change, is redialed on newBackOff (nil means DefaultBackOff) and, once
// back, sends a Resync change. The channel closes when ctx is done or the
// backoff gives up.
func Resume(ctx context.Context, table string, newBackOff func() backoff.BackOff, dial Dialer) (<-chan Change, error) {
	if newBackOff == nil {
		newBackOff = DefaultBackOff
	}
	feed, err := dial(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan Change, 16)
	go func() {
		defer close(ch)
		for {
			err := feed(ctx, ch)
			if ctx.Err() != nil {
				return
			}
			slog.Warn("live feed lost", "table", table, "error", err)
			if !deliver(ctx, ch, Change{Type: Interrupted, Table: table, Err: err}) {
				return
			}

			notify := func(err error, next time.Duration) {
				slog.Debug("live feed redial failed", "table", table, "error", err, "retry_in", next)
			}
			feed, err = backoff.RetryNotifyWithData(func() (Feed, error) {
				return dial(ctx)
			}, backoff.WithContext(newBackOff(), ctx), notify)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("live feed gave up", "table", table, "error", err)
				}
				return
			}
			slog.Info("live feed restored", "table", table)
			if !deliver(ctx, ch, Change{Type: Resync, Table: table}) {
				return
			}
		}
	}()
	return ch, nil
}

func deliver(ctx context.Context, ch chan<- Change, c Change) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
