// Package sqlquery renders source queries as parameterized SQL for the
// PostgreSQL and SQLite sources.
package sqlquery

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fieldworks/sitetrack/internal/source"
)

// Dialect selects placeholder style and null-ordering support.
type Dialect int

const (
	// Postgres uses $1 placeholders and NULLS FIRST/LAST.
	Postgres Dialect = iota
	// SQLite uses ? placeholders and emulates null placement.
	SQLite
)

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Quote double-quotes an identifier.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Select renders q. Identifiers are validated and quoted; values are bound.
func Select(d Dialect, q source.Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if len(q.Columns) == 0 || (len(q.Columns) == 1 && q.Columns[0] == "*") {
		b.WriteString("*")
	} else {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = Quote(c)
		}
		b.WriteString(strings.Join(cols, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(Quote(q.Table))

	var args []any
	if len(q.Eq) > 0 {
		conds := make([]string, len(q.Eq))
		for i, e := range q.Eq {
			args = append(args, e.Value)
			conds[i] = fmt.Sprintf("%s = %s", Quote(e.Column), d.placeholder(len(args)))
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if o := q.Order; o != nil {
		dir := "DESC"
		if o.Ascending {
			dir = "ASC"
		}
		col := Quote(o.Column)
		b.WriteString(" ORDER BY ")
		switch d {
		case Postgres:
			nulls := "NULLS LAST"
			if o.NullsFirst {
				nulls = "NULLS FIRST"
			}
			fmt.Fprintf(&b, "%s %s %s", col, dir, nulls)
		default:
			// (col IS NULL) sorts 0 before 1, so DESC puts nulls first.
			nulls := "ASC"
			if o.NullsFirst {
				nulls = "DESC"
			}
			fmt.Fprintf(&b, "(%s IS NULL) %s, %s %s", col, nulls, col, dir)
		}
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT %s", d.placeholder(len(args)))
	}
	return b.String(), args, nil
}

// Update renders a patch of row id in table. Columns are emitted in sorted
// order so statements are stable.
func Update(d Dialect, table, id string, patch source.Row) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("update %s: empty patch", table)
	}
	cols := sortedKeys(patch)
	q := source.Query{Table: table, Columns: cols}
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var args []any
	sets := make([]string, len(cols))
	for i, c := range cols {
		args = append(args, patch[c])
		sets[i] = fmt.Sprintf("%s = %s", Quote(c), d.placeholder(len(args)))
	}
	args = append(args, id)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		Quote(table), strings.Join(sets, ", "), Quote("id"), d.placeholder(len(args)))
	return stmt, args, nil
}

func sortedKeys(r source.Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
