// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
)

// filterFlags are the filter controls shared by report, export and watch.
type filterFlags struct {
	search string
	status string
	window string
	where  []string
	month  string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.search, "search", "s", "", "free-text search across record fields")
	fs.StringVar(&f.status, "status", "", "only records with this status (tbd, overdue, week, month, upcoming)")
	fs.StringVar(&f.window, "window", "", "only records inside a date window (all, ready, week, month, upcoming)")
	fs.StringArrayVar(&f.where, "where", nil, "field=value match, repeatable; prefix the field with ! to exclude")
	fs.StringVar(&f.month, "month", "", "calendar month to lay out (YYYY-MM)")
}

func (f *filterFlags) reset() {
	*f = filterFlags{}
}

// state builds the filter state for p. Unknown fields are errors here,
// unlike the HTTP query string where they are ignored.
func (f *filterFlags) state(p page.Page) (filter.State, error) {
	v := url.Values{}
	if f.search != "" {
		v.Set(filter.KeySearch, f.search)
	}
	if f.status != "" {
		v.Set(filter.KeyStatus, f.status)
	}
	if f.window != "" {
		v.Set(filter.KeyWindow, f.window)
	}
	fields := p.Filters()
	for _, w := range f.where {
		key, value, ok := strings.Cut(w, "=")
		if !ok || strings.TrimPrefix(key, "!") == "" {
			return filter.State{}, exitError(ExitInvalidArgs, "sitetrack: invalid --where %q: want field=value", w)
		}
		if field := strings.TrimPrefix(key, "!"); !slices.Contains(fields, field) {
			return filter.State{}, exitError(ExitInvalidArgs, "sitetrack: page %s has no filter field %q (available: %s)",
				p.Name(), field, strings.Join(fields, ", "))
		}
		v.Set(key, value)
	}

	st, err := filter.ParseState(v, fields)
	if err != nil {
		return filter.State{}, exitError(ExitInvalidArgs, "sitetrack: %v", err)
	}
	return st, nil
}

// monthDate parses --month. Empty means the month of today.
func (f *filterFlags) monthDate() (record.Date, error) {
	if f.month == "" {
		return record.Date{}, nil
	}
	t, err := time.Parse("2006-01", f.month)
	if err != nil {
		return record.Date{}, exitError(ExitInvalidArgs, "sitetrack: invalid --month %q: want YYYY-MM", f.month)
	}
	return record.NewDate(t.Year(), t.Month(), 1), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func describePages() string {
	return fmt.Sprintf("Pages: %s.", strings.Join(page.Names(), ", "))
}
