// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package view

import (
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
)

// Calendar cell limits.
const (
	MaxDayItems    = 3
	MaxLabelLength = 20
)

// Calendar is one month laid out Sunday first.
type Calendar struct {
	Month string `json:"month"`
	Title string `json:"title"`

	// Lead is the number of blank cells before the 1st.
	Lead int   `json:"lead"`
	Days []Day `json:"days"`
}

// Day is one calendar cell.
type Day struct {
	Date  record.Date    `json:"date"`
	Today bool           `json:"today,omitempty"`
	Items []CalendarItem `json:"items,omitempty"`

	// More counts the items beyond MaxDayItems.
	More int `json:"more,omitempty"`
}

// CalendarItem is one record shown in a day cell.
type CalendarItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// BuildCalendar lays out the month containing month. Records are placed on
// their reference date; undated records are left out.
func BuildCalendar(records []record.Record, month, today record.Date) *Calendar {
	first := record.NewDate(month.Year, month.Month, 1)
	last := record.NewDate(month.Year, month.Month+1, 0)

	byDay := make(map[record.Date][]record.Record)
	for _, r := range records {
		if r.ReferenceDate == nil {
			continue
		}
		d := *r.ReferenceDate
		if d.Year == first.Year && d.Month == first.Month {
			byDay[d] = append(byDay[d], r)
		}
	}

	c := &Calendar{
		Month: first.Format("2006-01"),
		Title: first.Format("January 2006"),
		Lead:  int(first.Time(time.UTC).Weekday()),
		Days:  make([]Day, 0, last.Day),
	}
	for n := 1; n <= last.Day; n++ {
		d := record.NewDate(first.Year, first.Month, n)
		day := Day{Date: d, Today: d.Equal(today)}
		for i, r := range byDay[d] {
			if i == MaxDayItems {
				day.More = len(byDay[d]) - MaxDayItems
				break
			}
			title := Label(r)
			day.Items = append(day.Items, CalendarItem{
				ID:    r.ID,
				Label: Truncate(title, MaxLabelLength),
				Title: title,
			})
		}
		c.Days = append(c.Days, day)
	}
	return c
}
