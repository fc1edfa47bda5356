// Package pipeline loads dashboard pages from a source. Pages load
// concurrently; a page that fails is recorded in its result and never aborts
// the others.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/state"
)

// DefaultConcurrency bounds concurrent page loads when Options leaves it unset.
const DefaultConcurrency = 4

// Options configures a Run.
type Options struct {
	// Concurrency bounds parallel loads. Zero means DefaultConcurrency.
	Concurrency int

	// Timeout bounds each page load. Zero means no per-page timeout.
	Timeout time.Duration

	// Location is used for date parsing. Nil means UTC.
	Location *time.Location

	// StateDir enables the snapshot cache rooted there when non-empty.
	StateDir string

	// Limits caps the row count per page name.
	Limits map[string]int

	// Observe, when set, is called after every source query.
	Observe func(p page.Page, d time.Duration, err error)
}

// PageResult is the outcome of loading one page.
type PageResult struct {
	Page    page.Page
	Rows    []source.Row
	Records []record.Record

	// Err is the load error. A page can carry both Err and Rows when it fell
	// back to a snapshot.
	Err error

	// Stale is true when Rows came from the snapshot cache.
	Stale bool

	FetchedAt time.Time
	Duration  time.Duration
}

// OK reports whether the page loaded fresh.
func (r PageResult) OK() bool { return r.Err == nil }

// Available reports whether the page has rows to show, fresh or stale.
func (r PageResult) Available() bool { return r.Err == nil || r.Stale }

// Result holds every page result in the order pages were requested.
type Result struct {
	Pages    []PageResult
	Duration time.Duration
}

// Get returns the result for a page name.
func (r *Result) Get(name string) (PageResult, bool) {
	for _, pr := range r.Pages {
		if pr.Page.Name() == name {
			return pr, true
		}
	}
	return PageResult{}, false
}

// Failed counts pages whose load returned an error.
func (r *Result) Failed() int {
	n := 0
	for _, pr := range r.Pages {
		if pr.Err != nil {
			n++
		}
	}
	return n
}

// Err joins the errors of all failed pages, or nil.
func (r *Result) Err() error {
	var errs []error
	for _, pr := range r.Pages {
		if pr.Err != nil {
			errs = append(errs, pr.Err)
		}
	}
	return errors.Join(errs...)
}

// Run loads pages from src. Load order is unspecified but Run returns only
// after every load has finished.
func Run(ctx context.Context, src source.Source, pages []page.Page, opts Options) *Result {
	start := time.Now()
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]PageResult, len(pages))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range pages {
		g.Go(func() error {
			results[i] = Load(ctx, src, p, opts)
			return nil
		})
	}
	_ = g.Wait()

	return &Result{Pages: results, Duration: time.Since(start)}
}

// Load loads a single page, falling back to its snapshot on failure.
func Load(ctx context.Context, src source.Source, p page.Page, opts Options) PageResult {
	start := time.Now()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	q := p.Query()
	if n := opts.Limits[p.Name()]; n > 0 {
		q.Limit = n
	}

	rows, err := src.Query(ctx, q)
	if opts.Observe != nil {
		opts.Observe(p, time.Since(start), err)
	}

	res := PageResult{Page: p}
	if err != nil {
		slog.Warn("page load failed", "page", p.Name(), "source", src.Name(), "error", err)
		res.Err = err
		if opts.StateDir != "" {
			snap, serr := state.Load(opts.StateDir, p.Name())
			switch {
			case serr == nil:
				res.Rows = snap.Rows
				res.Stale = true
				res.FetchedAt = snap.FetchedAt
			case !errors.Is(serr, state.ErrNoSnapshot):
				slog.Warn("snapshot unreadable", "page", p.Name(), "error", serr)
			}
		}
	} else {
		rows = DeduplicateRows(EnsureIDs(rows))
		res.Rows = rows
		res.FetchedAt = time.Now().UTC()
		if opts.StateDir != "" {
			snap := state.New(p.Name(), rows)
			snap.FetchedAt = res.FetchedAt
			if serr := state.Save(opts.StateDir, snap); serr != nil {
				slog.Warn("snapshot not saved", "page", p.Name(), "error", serr)
			}
		}
	}

	res.Records = page.MapRows(p, res.Rows, opts.Location)
	res.Duration = time.Since(start)
	slog.Debug("page loaded", "page", p.Name(), "rows", len(res.Rows), "stale", res.Stale, "duration", res.Duration)
	return res
}

// Resolve looks up pages by name. An empty list returns every registered
// page sorted by name.
func Resolve(names []string) ([]page.Page, error) {
	if len(names) == 0 {
		return page.List(), nil
	}
	pages := make([]page.Page, len(names))
	for i, name := range names {
		p, err := page.Get(name)
		if err != nil {
			return nil, err
		}
		pages[i] = p
	}
	return pages, nil
}
