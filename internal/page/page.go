// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package page defines the dashboard pages and a registry for looking them up.
// A page knows which table it reads and how each row becomes a record.
package page

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// ErrUnknownPage is returned by Get for names that were never registered.
var ErrUnknownPage = errors.New("unknown page")

// Computed column fields. They are resolved by Cell rather than looked up in
// the record's Fields.
const (
	ColumnStatus  = "@status"
	ColumnDate    = "@date"
	ColumnUrgency = "@urgency"
)

// Column is one table and CSV column.
type Column struct {
	Header string `json:"header"`
	Field  string `json:"field"`
}

// Page maps one backend table onto records.
type Page interface {
	// Name is the URL and CLI identifier (e.g., "deliveries").
	Name() string

	// Title is the human readable heading.
	Title() string

	// Query is the backend query that loads the page.
	Query() source.Query

	// Framing selects the status label vocabulary.
	Framing() status.Framing

	// Map converts a row. Date columns are read in loc.
	Map(row source.Row, loc *time.Location) record.Record

	// Columns lists the table columns in display order.
	Columns() []Column

	// Filters lists the categorical fields offered as filters.
	Filters() []string

	// GroupField is the field used for the category chart.
	GroupField() string
}

// Cell renders the display value of column c for r.
func Cell(p Page, r record.Record, c Column, today record.Date) string {
	switch c.Field {
	case ColumnStatus:
		return status.Label(status.Classify(r.ReferenceDate, today), p.Framing())
	case ColumnDate:
		if r.ReferenceDate == nil {
			return "TBD"
		}
		return r.ReferenceDate.String()
	case ColumnUrgency:
		return status.Urgency(r.ReferenceDate, today)
	default:
		return r.Field(c.Field)
	}
}

// Headers returns the column headers of p.
func Headers(p Page) []string {
	cols := p.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// Rows renders records as display rows in column order.
func Rows(p Page, records []record.Record, today record.Date) [][]string {
	cols := p.Columns()
	out := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = Cell(p, r, c, today)
		}
		out[i] = row
	}
	return out
}

// MapRows converts every row of a table.
func MapRows(p Page, rows []source.Row, loc *time.Location) []record.Record {
	out := make([]record.Record, len(rows))
	for i, row := range rows {
		out[i] = p.Map(row, loc)
	}
	return out
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Page)
)

// Register adds a page to the global registry.
// It panics if a page with the same name is already registered.
func Register(p Page) {
	mu.Lock()
	defer mu.Unlock()
	name := p.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("page already registered: %s", name))
	}
	registry[name] = p
}

// Get returns the named page.
func Get(name string) (Page, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownPage, name, strings.Join(namesLocked(), ", "))
	}
	return p, nil
}

// List returns every registered page sorted by name.
func List() []Page {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Page, 0, len(registry))
	for _, name := range namesLocked() {
		out = append(out, registry[name])
	}
	return out
}

// Names returns the sorted names of all registered pages.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// resetForTesting clears the registry and returns a func that restores the
// previous contents. Only for use in tests.
func resetForTesting() (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	saved := registry
	registry = make(map[string]Page)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		registry = saved
	}
}
