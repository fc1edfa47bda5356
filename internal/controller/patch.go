// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package controller

import (
	"slices"
	"time"

	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/pipeline"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
)

// table is the rows of one page and their mapped records, index aligned.
type table struct {
	rows    []source.Row
	records []record.Record
}

func newTable(p page.Page, rows []source.Row, loc *time.Location) table {
	rows = pipeline.DeduplicateRows(pipeline.EnsureIDs(rows))
	return table{rows: rows, records: page.MapRows(p, rows, loc)}
}

// apply returns the table after change c. Inserts are prepended so the
// newest row shows first; an insert for a known id replaces it. An update
// for an unknown id is treated as an insert. Deletes of unknown ids are
// no-ops.
func (t table) apply(p page.Page, c source.Change, loc *time.Location) table {
	if c.Type == source.Replace {
		return newTable(p, c.Rows, loc)
	}
	row := c.Row.Clone()
	if len(row) == 0 {
		return t
	}
	if source.RowID(row) == "" && c.Type != source.Delete {
		pipeline.EnsureIDs([]source.Row{row})
	}
	id := source.RowID(row)
	if id == "" {
		return t
	}
	i := slices.IndexFunc(t.rows, func(r source.Row) bool { return source.RowID(r) == id })

	switch c.Type {
	case source.Delete:
		if i < 0 {
			return t
		}
		return table{
			rows:    slices.Delete(slices.Clone(t.rows), i, i+1),
			records: slices.Delete(slices.Clone(t.records), i, i+1),
		}
	case source.Insert, source.Update:
		rec := p.Map(row, loc)
		if i >= 0 {
			out := table{rows: slices.Clone(t.rows), records: slices.Clone(t.records)}
			out.rows[i] = row
			out.records[i] = rec
			return out
		}
		return table{
			rows:    slices.Insert(slices.Clone(t.rows), 0, row),
			records: slices.Insert(slices.Clone(t.records), 0, rec),
		}
	default:
		return t
	}
}
