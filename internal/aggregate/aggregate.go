// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package aggregate computes summary statistics over record collections.
// Every function here is total: nil input is an empty collection.
package aggregate

import (
	"math"
	"strconv"
	"strings"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Statistics summarizes a collection against a given day.
type Statistics struct {
	Total       int `json:"total"`
	Overdue     int `json:"overdue"`
	DueThisWeek int `json:"due_this_week"`
	// DueLater counts DueThisMonth and Upcoming together.
	DueLater   int `json:"due_later"`
	TBD        int `json:"tbd"`
	Milestones int `json:"milestones"`
	Critical   int `json:"critical"`
	// Dated counts records with a usable reference date.
	Dated int `json:"dated"`

	ByStatus map[status.Status]int `json:"by_status"`
}

// Aggregate classifies every record against today and tallies the buckets.
func Aggregate(records []record.Record, today record.Date) Statistics {
	s := Statistics{ByStatus: make(map[status.Status]int, len(status.All))}
	for _, st := range status.All {
		s.ByStatus[st] = 0
	}

	for _, r := range records {
		s.Total++
		st := status.Classify(r.ReferenceDate, today)
		s.ByStatus[st]++
		switch st {
		case status.TBD:
			s.TBD++
		case status.Overdue:
			s.Overdue++
		case status.DueThisWeek:
			s.DueThisWeek++
		case status.DueThisMonth, status.Upcoming:
			s.DueLater++
		}
		if st != status.TBD {
			s.Dated++
		}
		if r.IsMilestone {
			s.Milestones++
		}
		if r.IsCritical {
			s.Critical++
		}
	}
	return s
}

// OverduePercent is the share of dated records already past due.
func (s Statistics) OverduePercent() float64 {
	return Percentage(s.Overdue, s.Dated)
}

// Percentage returns part/whole*100. A zero whole yields 0.
func Percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// RoundPercentage is Percentage rounded to the nearest whole number.
func RoundPercentage(part, whole int) int {
	return int(math.Round(Percentage(part, whole)))
}

// Sum totals a numeric field across records. Values that do not parse as
// numbers (after stripping currency symbols and separators) count as zero.
func Sum(records []record.Record, field string) float64 {
	var total float64
	for _, r := range records {
		total += ParseAmount(r.Field(field))
	}
	return total
}

// ParseAmount reads "$1,234.50" style amounts. Unparseable input is 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
