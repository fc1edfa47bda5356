// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package page

import (
	"strconv"
	"strings"
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Schedule activity statuses.
const (
	ActivityComplete   = "Complete"
	ActivityInProgress = "In Progress"
	ActivityNotStarted = "Not Started"
	ActivityOverdue    = "Overdue"
)

// Values of the schedule "kind" field.
const (
	KindMilestone = "milestone"
	KindWork      = "work"
)

// Schedule lists project schedule activities keyed on their finish date.
var Schedule Page = &table{
	name:    "schedule",
	title:   "Project Schedule",
	framing: status.ScheduleFraming,
	query: source.Query{
		Table: "project_schedule",
		Order: &source.Order{Column: "start_date", Ascending: true},
	},
	columns: []Column{
		{"Activity ID", "activity_id"},
		{"Activity", "activity_name"},
		{"Category", "category"},
		{"Start", "start_date"},
		{"Finish", ColumnDate},
		{"Due", ColumnStatus},
		{"Progress", "status"},
		{"% Complete", "percent_complete"},
	},
	filters: []string{"activity_type", "category", "status", "kind"},
	group:   "category",
	mapRow:  mapActivity,
}

func init() { Register(Schedule) }

func mapActivity(row source.Row, loc *time.Location) record.Record {
	fields := copyFields(row,
		"activity_id", "activity_name", "activity_type", "status",
		"percent_complete", "remaining_duration")
	name := row.Str("activity_name")

	category := row.Str("category")
	if category == "" {
		category = Categorize(name)
	}
	fields["category"] = category

	milestone := row.Bool("is_milestone") || IsMilestoneName(name)
	if d, ok := row.Float("remaining_duration"); ok && d == 0 {
		milestone = true
	}
	if milestone {
		fields["kind"] = KindMilestone
	} else {
		fields["kind"] = KindWork
	}

	dateField(row, "start_date", loc, fields)
	return record.Record{
		ID:               rowID(row, "activity_id"),
		ReferenceDate:    dateField(row, "finish_date", loc, fields),
		Category:         category,
		StatusRaw:        row.Str("status"),
		IsMilestone:      milestone,
		IsCritical:       row.Bool("is_critical") || HasCriticalKeyword(name),
		SearchableFields: searchable(row, "activity_id", "activity_name"),
		Fields:           fields,
	}
}

// ActivityStatus returns the progress status of a schedule record. A stored
// status wins; otherwise it is derived from percent complete and the start
// and finish dates.
func ActivityStatus(r record.Record, today record.Date) string {
	if r.StatusRaw != "" {
		return r.StatusRaw
	}
	pct, _ := strconv.ParseFloat(r.Fields["percent_complete"], 64)
	if pct >= 100 {
		return ActivityComplete
	}
	if r.ReferenceDate != nil && r.ReferenceDate.Before(today) {
		return ActivityOverdue
	}
	if start := StartDate(r); start != nil && !start.After(today) {
		return ActivityInProgress
	}
	return ActivityNotStarted
}

// StartDate returns the parsed start date of a schedule record.
func StartDate(r record.Record) *record.Date {
	return record.NormalizeDate(r.Fields["start_date"], time.UTC)
}

// UsableName reports whether an activity has a displayable name.
func UsableName(r record.Record) bool {
	n := strings.TrimSpace(r.Fields["activity_name"])
	return n != "" && !strings.EqualFold(n, "n/a")
}
