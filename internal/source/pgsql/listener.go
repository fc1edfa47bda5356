package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldworks/sitetrack/internal/source"
)

// listenConn is the part of *pgx.Conn the listener uses.
type listenConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

type dialFunc func(ctx context.Context) (listenConn, error)

const closeTimeout = 5 * time.Second

// listener multiplexes every table's NOTIFY channel over one connection.
// The run goroutine owns the connection; subscribers only touch subs and
// poke wake so the run loop LISTENs on new channels.
type listener struct {
	dial   dialFunc
	redial func() backoff.BackOff

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool
	subs    map[string][]*feed
}

type feed struct {
	table string
	ch    chan source.Change
	ctx   context.Context
}

func newListener(dial dialFunc, redial func() backoff.BackOff) *listener {
	if redial == nil {
		redial = source.DefaultBackOff
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &listener{
		dial:   dial,
		redial: redial,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		subs:   make(map[string][]*feed),
	}
}

func channelName(table string) string { return ChannelPrefix + table }

// subscribe registers a feed for table until ctx is done. The first call
// opens the connection, so an unreachable database fails here.
func (l *listener) subscribe(ctx context.Context, table string) (<-chan source.Change, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, errors.New("listener closed")
	}
	if !l.started {
		conn, err := l.dial(ctx)
		if err != nil {
			return nil, fmt.Errorf("listen connect: %w", err)
		}
		l.started = true
		go l.run(conn)
	}

	f := &feed{table: table, ch: make(chan source.Change, 16), ctx: ctx}
	name := channelName(table)
	l.subs[name] = append(l.subs[name], f)
	l.poke()

	go func() {
		select {
		case <-ctx.Done():
		case <-l.ctx.Done():
		}
		l.remove(f)
	}()
	return f.ch, nil
}

// remove drops f and closes its channel. It is a no-op for a feed already
// removed.
func (l *listener) remove(f *feed) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := channelName(f.table)
	subs := l.subs[name]
	i := slices.Index(subs, f)
	if i < 0 {
		return
	}
	if subs = slices.Delete(subs, i, i+1); len(subs) == 0 {
		delete(l.subs, name)
	} else {
		l.subs[name] = subs
	}
	close(f.ch)
	l.poke()
}

func (l *listener) poke() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *listener) close() {
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	l.cancel()
	if started {
		<-l.done
	} else {
		l.closeAll()
	}
}

func (l *listener) run(conn listenConn) {
	defer close(l.done)
	defer l.closeAll()

	listening := make(map[string]bool)
	for {
		if conn == nil {
			notify := func(err error, next time.Duration) {
				slog.Debug("postgres listener redial failed", "error", err, "retry_in", next)
			}
			var err error
			conn, err = backoff.RetryNotifyWithData(func() (listenConn, error) {
				return l.dial(l.ctx)
			}, backoff.WithContext(l.redial(), l.ctx), notify)
			if err != nil {
				if l.ctx.Err() == nil {
					slog.Warn("postgres listener gave up", "error", err)
				}
				return
			}
			clear(listening)
			slog.Info("postgres listener restored")
			l.broadcast(source.Resync, nil)
		}

		if err := l.sync(conn, listening); err != nil {
			if l.ctx.Err() != nil {
				closeConn(conn)
				return
			}
			conn = l.drop(conn, err)
			continue
		}

		n, woken, err := l.wait(conn)
		switch {
		case l.ctx.Err() != nil:
			closeConn(conn)
			return
		case woken:
			continue
		case err != nil:
			conn = l.drop(conn, err)
			continue
		}
		l.route(n)
	}
}

// sync LISTENs on channels that gained a subscriber and UNLISTENs those
// that lost their last one.
func (l *listener) sync(conn listenConn, listening map[string]bool) error {
	l.mu.Lock()
	want := make(map[string]bool, len(l.subs))
	for name := range l.subs {
		want[name] = true
	}
	l.mu.Unlock()

	for name := range want {
		if listening[name] {
			continue
		}
		if _, err := conn.Exec(l.ctx, "LISTEN "+pgx.Identifier{name}.Sanitize()); err != nil {
			return fmt.Errorf("listen %s: %w", name, err)
		}
		listening[name] = true
		slog.Debug("postgres listening", "channel", name)
	}
	for name := range listening {
		if want[name] {
			continue
		}
		if _, err := conn.Exec(l.ctx, "UNLISTEN "+pgx.Identifier{name}.Sanitize()); err != nil {
			return fmt.Errorf("unlisten %s: %w", name, err)
		}
		delete(listening, name)
	}
	return nil
}

// wait blocks for the next notification. woken reports that a subscriber
// change interrupted it.
func (l *listener) wait(conn listenConn) (n *pgconn.Notification, woken bool, err error) {
	waitCtx, cancel := context.WithCancel(l.ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-l.wake:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	n, err = conn.WaitForNotification(waitCtx)
	woken = err != nil && waitCtx.Err() != nil && l.ctx.Err() == nil
	cancel()
	<-stopped
	return n, woken, err
}

func (l *listener) drop(conn listenConn, err error) listenConn {
	slog.Warn("postgres listener lost", "error", err)
	closeConn(conn)
	l.broadcast(source.Interrupted, err)
	return nil
}

func (l *listener) route(n *pgconn.Notification) {
	table := strings.TrimPrefix(n.Channel, ChannelPrefix)
	c, err := DecodeNotification(table, n.Payload)
	if err != nil {
		slog.Warn("ignoring notification", "channel", n.Channel, "error", err)
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.subs[n.Channel] {
		l.send(f, c)
	}
}

// broadcast tells every feed about a connection state change.
func (l *listener) broadcast(t source.ChangeType, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, subs := range l.subs {
		for _, f := range subs {
			l.send(f, source.Change{Type: t, Table: f.table, Err: err})
		}
	}
}

// send must be called with mu held.
func (l *listener) send(f *feed, c source.Change) {
	select {
	case f.ch <- c:
	case <-f.ctx.Done():
	case <-l.ctx.Done():
	}
}

func (l *listener) closeAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	for name, subs := range l.subs {
		for _, f := range subs {
			close(f.ch)
		}
		delete(l.subs, name)
	}
}

func closeConn(conn listenConn) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := conn.Close(ctx); err != nil {
		slog.Debug("postgres listener close", "error", err)
	}
}
