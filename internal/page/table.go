package page

import (
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// table is a Page described by data plus a row mapper.
type table struct {
	name    string
	title   string
	query   source.Query
	framing status.Framing
	columns []Column
	filters []string
	group   string
	mapRow  func(row source.Row, loc *time.Location) record.Record
}

var _ Page = (*table)(nil)

func (t *table) Name() string            { return t.name }
func (t *table) Title() string           { return t.title }
func (t *table) Framing() status.Framing { return t.framing }
func (t *table) GroupField() string      { return t.group }

// Query returns a copy so callers may adjust the limit.
func (t *table) Query() source.Query {
	q := t.query
	q.Columns = append([]string(nil), t.query.Columns...)
	q.Eq = append([]source.Eq(nil), t.query.Eq...)
	if t.query.Order != nil {
		o := *t.query.Order
		q.Order = &o
	}
	return q
}

func (t *table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

func (t *table) Filters() []string {
	return append([]string(nil), t.filters...)
}

func (t *table) Map(row source.Row, loc *time.Location) record.Record {
	if loc == nil {
		loc = time.UTC
	}
	return t.mapRow(row, loc)
}

// copyFields copies the named columns as display strings. Empty values are
// omitted so Record.Field reports "".
func copyFields(row source.Row, cols ...string) map[string]string {
	out := make(map[string]string, len(cols))
	for _, c := range cols {
		if v := row.Str(c); v != "" {
			out[c] = v
		}
	}
	return out
}

// searchable returns the values of cols in order, keeping empty slots so the
// joined haystack stays aligned with the column list.
func searchable(row source.Row, cols ...string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = row.Str(c)
	}
	return out
}

// dateField parses a date column. A parseable value is rewritten in fields
// as an ISO date.
func dateField(row source.Row, col string, loc *time.Location, fields map[string]string) *record.Date {
	d := record.NormalizeDate(row.Str(col), loc)
	if d != nil {
		fields[col] = d.String()
	}
	return d
}

// rowID prefers the "id" column and falls back to the first non-empty
// alternative.
func rowID(row source.Row, alternatives ...string) string {
	if id := source.RowID(row); id != "" {
		return id
	}
	for _, c := range alternatives {
		if v := row.Str(c); v != "" {
			return v
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
