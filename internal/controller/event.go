package controller

import (
	"time"

	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/view"
)

// Event is a message to the controller loop. Every event targets one page.
type Event interface {
	PageName() string
}

// Replace swaps in a full table for a page.
type Replace struct {
	Page string
	Rows []source.Row

	// Stale marks rows that came from a snapshot; Err explains why.
	Stale     bool
	Err       error
	FetchedAt time.Time

	// Since is the patch sequence number the load started at. Patches
	// numbered Since or later are replayed over Rows. Zero means the rows
	// were not loaded through Refresh and replace the table as they are.
	Since uint64
}

// Patch applies one row change.
type Patch struct {
	Page   string
	Change source.Change
}

// SetFilter replaces the filter of a page.
type SetFilter struct {
	Page   string
	Filter filter.State
}

// SetMonth moves the calendar of a page to the month containing Month.
type SetMonth struct {
	Page  string
	Month record.Date
}

// Failed records that a page could not be loaded. Rows already held are kept.
type Failed struct {
	Page string
	Err  error

	// Since is set when the failure ends a load started by Refresh.
	Since uint64
}

// Query asks for a view of a page under a filter without changing the page's
// own filter or month. The answer is sent on Reply, which must be buffered.
type Query struct {
	Page   string
	Filter filter.State
	Month  record.Date
	Reply  chan<- QueryResult
}

// QueryResult answers a Query.
type QueryResult struct {
	View *view.View
	Err  error
}

func (e Replace) PageName() string   { return e.Page }
func (e Patch) PageName() string     { return e.Page }
func (e SetFilter) PageName() string { return e.Page }
func (e SetMonth) PageName() string  { return e.Page }
func (e Failed) PageName() string    { return e.Page }
func (e Query) PageName() string     { return e.Page }

// Update is published after a page's view was recomputed.
type Update struct {
	Page string
	View *view.View

	// Reloaded is true when the page's whole table was replaced, as opposed
	// to a row patch or a filter change.
	Reloaded bool
}
