// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package filter narrows record collections by search text, categorical
// matches, derived status and timeframe window.
package filter

import (
	"strings"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/status"
)

// searchSeparator joins searchable fields so a term cannot match across a
// field boundary by accident.
const searchSeparator = " | "

// Apply returns the records satisfying every active predicate in st, in input
// order. With no active predicate the input slice is returned as is.
func Apply(records []record.Record, st State, today record.Date) []record.Record {
	if st.IsEmpty() {
		return records
	}

	p := compile(st)
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if p.match(r, today) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record passes st.
func Matches(r record.Record, st State, today record.Date) bool {
	return compile(st).match(r, today)
}

// predicate is a State with its inputs normalized once per Apply.
type predicate struct {
	term      string
	matches   []Match
	statusSet bool
	status    status.Status
	statusBad bool
	window    status.Window
}

func compile(st State) predicate {
	p := predicate{
		term:   strings.ToLower(strings.TrimSpace(st.Search)),
		window: st.Window,
	}
	for _, m := range st.Categories {
		if m.Value != "" {
			p.matches = append(p.matches, m)
		}
	}
	if v := strings.TrimSpace(st.Status); v != "" {
		p.statusSet = true
		s, err := status.ParseStatus(v)
		if err != nil {
			p.statusBad = true
		}
		p.status = s
	}
	return p
}

func (p predicate) match(r record.Record, today record.Date) bool {
	if p.term != "" && !searchMatch(r, p.term) {
		return false
	}
	for _, m := range p.matches {
		if (r.Field(m.Field) == m.Value) == m.Exclude {
			return false
		}
	}
	if p.statusSet && !p.statusMatch(r, today) {
		return false
	}
	return p.window.Contains(r.ReferenceDate, today)
}

func (p predicate) statusMatch(r record.Record, today record.Date) bool {
	if p.statusBad {
		return false
	}
	if p.status == status.TBD {
		return r.ReferenceDate == nil
	}
	if r.ReferenceDate == nil {
		return false
	}
	return status.Classify(r.ReferenceDate, today) == p.status
}

func searchMatch(r record.Record, term string) bool {
	haystack := strings.ToLower(strings.Join(r.SearchableFields, searchSeparator))
	return strings.Contains(haystack, term)
}
