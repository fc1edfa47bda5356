// Package status derives urgency buckets from a record's reference date.
//
// Derived statuses are never stored. They are recomputed against the
// supplied "today" on every call, so the same record can move between
// buckets from one day to the next without any write to the record.
package status

import (
	"fmt"
	"strings"

	"github.com/fieldworks/sitetrack/internal/record"
)

// Bucket boundaries in days, inclusive.
const (
	WeekDays  = 7
	MonthDays = 30
)

// Status is a derived urgency bucket.
type Status string

// Derived statuses, in urgency order.
const (
	TBD          Status = "tbd"
	Overdue      Status = "overdue"
	DueThisWeek  Status = "week"
	DueThisMonth Status = "month"
	Upcoming     Status = "upcoming"
)

// All lists every status in display order.
var All = []Status{Overdue, DueThisWeek, DueThisMonth, Upcoming, TBD}

// Classify maps a reference date to its bucket. Rules apply in order:
// nil is TBD, before today is Overdue, up to today+7 is DueThisWeek,
// up to today+30 is DueThisMonth, anything later is Upcoming.
// A record due today is DueThisWeek, never Overdue.
func Classify(ref *record.Date, today record.Date) Status {
	switch {
	case ref == nil:
		return TBD
	case ref.Before(today):
		return Overdue
	case !ref.After(today.AddDays(WeekDays)):
		return DueThisWeek
	case !ref.After(today.AddDays(MonthDays)):
		return DueThisMonth
	default:
		return Upcoming
	}
}

// ParseStatus resolves a filter value to a Status. It accepts the canonical
// names plus the shipment-readiness aliases used in URLs and flags.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tbd":
		return TBD, nil
	case "overdue", "ready", "ready-now", "ready_now":
		return Overdue, nil
	case "week", "this-week", "this_week", "due-this-week":
		return DueThisWeek, nil
	case "month", "this-month", "this_month", "due-this-month":
		return DueThisMonth, nil
	case "upcoming", "later", "not-ready":
		return Upcoming, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Framing selects the vocabulary a page uses for status labels.
type Framing int

const (
	// ScheduleFraming speaks in due dates ("Overdue", "Due This Week").
	ScheduleFraming Framing = iota
	// ShipmentFraming speaks in readiness ("Ready Now", "Ready This Week").
	ShipmentFraming
)

func (f Framing) String() string {
	if f == ShipmentFraming {
		return "shipment"
	}
	return "schedule"
}

var labels = map[Framing]map[Status]string{
	ScheduleFraming: {
		TBD:          "TBD",
		Overdue:      "Overdue",
		DueThisWeek:  "Due This Week",
		DueThisMonth: "Due This Month",
		Upcoming:     "Upcoming",
	},
	ShipmentFraming: {
		TBD:          "TBD",
		Overdue:      "Ready Now",
		DueThisWeek:  "Ready This Week",
		DueThisMonth: "Ready This Month",
		Upcoming:     "Not Ready Yet",
	},
}

// Label returns the display label for s under framing f.
func Label(s Status, f Framing) string {
	if l, ok := labels[f][s]; ok {
		return l
	}
	return string(s)
}

// Urgency describes how far ref is from today in words: "Today",
// "Tomorrow", "In N days", "N days ago", or "TBD".
func Urgency(ref *record.Date, today record.Date) string {
	if ref == nil {
		return "TBD"
	}
	n := today.DaysUntil(*ref)
	switch {
	case n == 0:
		return "Today"
	case n == 1:
		return "Tomorrow"
	case n == -1:
		return "Yesterday"
	case n > 1:
		return fmt.Sprintf("In %d days", n)
	default:
		return fmt.Sprintf("%d days ago", -n)
	}
}
