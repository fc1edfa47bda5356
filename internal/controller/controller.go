// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package controller owns the live state of every dashboard page.
//
// A single goroutine (Run) holds the rows, filter and calendar month of each
// page and applies events to them one at a time. After each event the
// affected page's view is rebuilt through filter.Apply and view.Build and
// published. Readers never touch the state; they read published views or
// subscribe to updates.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/pipeline"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/view"
)

// ErrNotLoaded is returned by ViewOf for a page that has no data yet.
var ErrNotLoaded = errors.New("page not loaded")

// DefaultBuffer is the subscriber channel size when Options leaves it unset.
const DefaultBuffer = 16

// Options configures a Controller.
type Options struct {
	// Location decides what "today" is and how dates are read. Nil means UTC.
	Location *time.Location

	// Site is the tracker geofence center.
	Site view.Site

	// Now is the clock. Nil means time.Now.
	Now func() time.Time

	// Buffer is the per-subscriber channel size.
	Buffer int

	// OnRecompute, when set, is called after every view rebuild.
	OnRecompute func(page string, records int, d time.Duration)

	// OnChange, when set, is called for every applied patch.
	OnChange func(page string, t source.ChangeType)
}

type pageState struct {
	table     table
	filter    filter.State
	month     record.Date
	err       error
	stale     bool
	loaded    bool
	fetchedAt time.Time

	// since is the Since of the newest load applied. journal holds the
	// patches applied while a load was in flight.
	since   uint64
	journal []journaled
}

type journaled struct {
	seq    uint64
	change source.Change
}

// replay reapplies journaled patches numbered since or later and forgets
// the older ones.
func (st *pageState) replay(p page.Page, since uint64, loc *time.Location) {
	keep := st.journal[:0]
	for _, j := range st.journal {
		if j.seq < since {
			continue
		}
		st.table = st.table.apply(p, j.change, loc)
		keep = append(keep, j)
	}
	st.journal = keep
}

// Controller is the application state object. Create it with New and start
// the loop with Run.
type Controller struct {
	pages  map[string]page.Page
	order  []string
	opts   Options
	events chan Event

	// states is owned by the Run goroutine.
	states map[string]*pageState

	mu    sync.RWMutex
	views map[string]*view.View

	subsMu sync.Mutex
	subs   map[uint64]chan Update
	nextID uint64

	// seq numbers handled patches. loads counts page loads queued by
	// Refresh and not yet handled; patches are journaled while it is
	// non-zero.
	seq   atomic.Uint64
	loads atomic.Int64
}

// New builds a controller for pages.
func New(pages []page.Page, opts Options) *Controller {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	c := &Controller{
		pages:  make(map[string]page.Page, len(pages)),
		opts:   opts,
		events: make(chan Event, 64),
		states: make(map[string]*pageState, len(pages)),
		views:  make(map[string]*view.View, len(pages)),
		subs:   make(map[uint64]chan Update),
	}
	for _, p := range pages {
		c.pages[p.Name()] = p
		c.order = append(c.order, p.Name())
		c.states[p.Name()] = &pageState{}
	}
	return c
}

// Pages returns the controlled pages in construction order.
func (c *Controller) Pages() []page.Page {
	out := make([]page.Page, len(c.order))
	for i, name := range c.order {
		out[i] = c.pages[name]
	}
	return out
}

// Send queues an event. It blocks until the loop accepts it or ctx is done.
func (c *Controller) Send(ctx context.Context, ev Event) error {
	select {
	case c.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// View returns the latest published view of a page. ok is false until the
// page has received its first event.
func (c *Controller) View(name string) (*view.View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[name]
	return v, ok
}

// Subscribe registers for view updates of every page. When the subscriber
// falls behind, the oldest pending update is dropped. Call cancel to stop.
func (c *Controller) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, c.opts.Buffer)

	c.subsMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subsMu.Unlock()

	cancel := func() {
		c.subsMu.Lock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
		c.subsMu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) handle(ev Event) {
	name := ev.PageName()
	p, ok := c.pages[name]
	if !ok {
		if q, isQuery := ev.(Query); isQuery {
			q.Reply <- QueryResult{Err: fmt.Errorf("%w: %q", page.ErrUnknownPage, name)}
			return
		}
		slog.Warn("event for unknown page", "page", name)
		return
	}
	st := c.states[name]
	loc := c.opts.Location

	if q, ok := ev.(Query); ok {
		c.answer(p, st, q)
		return
	}

	reloaded := false
	switch e := ev.(type) {
	case Replace:
		if e.Since > 0 {
			c.loads.Add(-1)
			if e.Since < st.since {
				slog.Debug("dropping superseded load", "page", name)
				return
			}
			st.since = e.Since
		}
		st.table = newTable(p, e.Rows, loc)
		if e.Since > 0 {
			st.replay(p, e.Since, loc)
		}
		if c.loads.Load() == 0 {
			st.journal = nil
		}
		st.err, st.stale, st.loaded = e.Err, e.Stale, true
		st.fetchedAt = e.FetchedAt
		if st.fetchedAt.IsZero() {
			st.fetchedAt = c.opts.Now()
		}
		reloaded = true
	case Patch:
		seq := c.seq.Add(1)
		st.table = st.table.apply(p, e.Change, loc)
		if c.loads.Load() > 0 {
			st.journal = append(st.journal, journaled{seq: seq, change: e.Change})
		} else {
			st.journal = nil
		}
		if c.opts.OnChange != nil {
			c.opts.OnChange(name, e.Change.Type)
		}
		reloaded = e.Change.Type == source.Replace
	case SetFilter:
		st.filter = e.Filter
	case SetMonth:
		st.month = e.Month
	case Failed:
		if e.Since > 0 {
			c.loads.Add(-1)
		}
		st.err = e.Err
		st.stale = st.loaded
		slog.Warn("page unavailable", "page", name, "error", e.Err, "stale", st.stale)
	default:
		slog.Warn("unhandled event", "page", name, "type", ev)
		return
	}
	c.publish(Update{Page: name, View: c.recompute(p, st), Reloaded: reloaded})
}

func (c *Controller) recompute(p page.Page, st *pageState) *view.View {
	start := time.Now()
	v := c.build(p, st, st.filter, st.month)
	if c.opts.OnRecompute != nil {
		c.opts.OnRecompute(p.Name(), len(st.table.records), time.Since(start))
	}
	return v
}

func (c *Controller) build(p page.Page, st *pageState, fs filter.State, month record.Date) *view.View {
	now := c.opts.Now().In(c.opts.Location)
	today := record.DateOf(now)

	all := st.table.records
	filtered := filter.Apply(all, fs, today)
	v := view.Build(p, all, filtered, today, view.Options{
		Filter: fs,
		Site:   c.opts.Site,
		Month:  month,
		Now:    now,
	})
	if st.err != nil {
		v.Error = st.err.Error()
	}
	v.Stale = st.stale
	v.FetchedAt = st.fetchedAt
	return v
}

func (c *Controller) answer(p page.Page, st *pageState, q Query) {
	if !st.loaded && st.err == nil {
		q.Reply <- QueryResult{Err: fmt.Errorf("%w: %s", ErrNotLoaded, p.Name())}
		return
	}
	q.Reply <- QueryResult{View: c.build(p, st, q.Filter, q.Month)}
}

// ViewOf builds a view of a page under fs and month without touching the
// page's published state. Each caller gets its own filter, so concurrent
// dashboard clients do not see each other's selections.
func (c *Controller) ViewOf(ctx context.Context, name string, fs filter.State, month record.Date) (*view.View, error) {
	reply := make(chan QueryResult, 1)
	if err := c.Send(ctx, Query{Page: name, Filter: fs, Month: month, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		return r.View, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// publish notifies subscribers, then stores the view. A reader that sees the
// new view can rely on the update already being queued.
func (c *Controller) publish(u Update) {
	c.subsMu.Lock()
	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
			// Drop the oldest pending update to make room.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
	c.subsMu.Unlock()

	c.mu.Lock()
	c.views[u.Page] = u.View
	c.mu.Unlock()
}

// Seed turns a pipeline result into Replace and Failed events.
func (c *Controller) Seed(ctx context.Context, res *pipeline.Result) error {
	_, err := c.seed(ctx, res, 0)
	return err
}

func (c *Controller) seed(ctx context.Context, res *pipeline.Result, since uint64) (int, error) {
	for i, pr := range res.Pages {
		var ev Event
		if pr.Available() {
			ev = Replace{
				Page:      pr.Page.Name(),
				Rows:      pr.Rows,
				Stale:     pr.Stale,
				Err:       pr.Err,
				FetchedAt: pr.FetchedAt,
				Since:     since,
			}
		} else {
			ev = Failed{Page: pr.Page.Name(), Err: pr.Err, Since: since}
		}
		if err := c.Send(ctx, ev); err != nil {
			return i, err
		}
	}
	return len(res.Pages), nil
}

// Refresh reloads every page from src and queues the results. It returns
// the joined page errors, if any. Patches handled while the reload runs are
// replayed over its rows, so a slow load never undoes a newer change.
func (c *Controller) Refresh(ctx context.Context, src source.Source, opts pipeline.Options) error {
	return c.refresh(ctx, src, opts, c.Pages())
}

// RefreshPages reloads the named pages like Refresh.
func (c *Controller) RefreshPages(ctx context.Context, src source.Source, opts pipeline.Options, names ...string) error {
	pages := make([]page.Page, 0, len(names))
	for _, name := range names {
		p, ok := c.pages[name]
		if !ok {
			return fmt.Errorf("%w: %q", page.ErrUnknownPage, name)
		}
		pages = append(pages, p)
	}
	return c.refresh(ctx, src, opts, pages)
}

func (c *Controller) refresh(ctx context.Context, src source.Source, opts pipeline.Options, pages []page.Page) error {
	c.loads.Add(int64(len(pages)))
	since := c.seq.Load() + 1
	res := pipeline.Run(ctx, src, pages, opts)
	sent, err := c.seed(ctx, res, since)
	if unsent := len(pages) - sent; unsent > 0 {
		c.loads.Add(-int64(unsent))
	}
	if err != nil {
		return errors.Join(err, res.Err())
	}
	return res.Err()
}
