package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedDate is returned by ParseDate when no supported layout matches.
var ErrMalformedDate = errors.New("malformed date")

// Date is a calendar date with no time of day and no location.
// Comparing two Dates is always a whole-day comparison.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar date in loc. A nil loc means local time.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return DateOf(time.Now().In(loc))
}

// NewDate builds a Date, normalizing out-of-range components (Feb 30 -> Mar 2).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Time returns midnight of d in loc. A nil loc means UTC.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d falls strictly before o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d falls strictly after o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Equal reports whether d and o are the same calendar date.
func (d Date) Equal(o Date) bool { return d.Compare(o) == 0 }

// DaysUntil returns the signed number of days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time(time.UTC).Sub(d.Time(time.UTC)).Hours() / 24)
}

// String formats d as 2006-01-02.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Format formats d using a time layout.
func (d Date) Format(layout string) string {
	return d.Time(time.UTC).Format(layout)
}

// MarshalJSON encodes d as an ISO date string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes an ISO date string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	*d = DateOf(t)
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

const isoLayout = "2006-01-02"

// Layouts carrying a time of day. The calendar date is taken in the caller's
// location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Layouts that are already calendar dates.
var dateLayouts = []string{
	isoLayout,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"02-Jan-06",
}

// Layouts without a year. They resolve to the current year in loc.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
}

// ParseDate parses s in any of the date formats found in schedule exports and
// supplier spreadsheets. Timestamps are reduced to their calendar date in loc.
// For ranges like "Mar 3 - Mar 10" the first date is returned.
func ParseDate(s string, loc *time.Location) (*Date, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedDate)
	}

	if d, ok := parseOne(s, loc); ok {
		return &d, nil
	}

	// Range: "A - B", "A – B", "A to B".
	for _, sep := range []string{" - ", " – ", " to "} {
		if i := strings.Index(s, sep); i > 0 {
			if d, ok := parseOne(strings.TrimSpace(s[:i]), loc); ok {
				return &d, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

// NormalizeDate is ParseDate with malformed input mapped to nil.
func NormalizeDate(s string, loc *time.Location) *Date {
	d, err := ParseDate(s, loc)
	if err != nil {
		return nil
	}
	return d
}

func parseOne(s string, loc *time.Location) (Date, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), true
		}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return DateOf(t.In(loc)), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(time.Now().In(loc).Year(), t.Month(), t.Day()), true
		}
	}
	return Date{}, false
}
