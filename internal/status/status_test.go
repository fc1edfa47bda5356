// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/record"
)

var today = record.NewDate(2026, time.March, 1)

func at(offset int) *record.Date {
	d := today.AddDays(offset)
	return &d
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		name   string
		ref    *record.Date
		expect Status
	}{
		{"absent", nil, TBD},
		{"long overdue", at(-90), Overdue},
		{"yesterday", at(-1), Overdue},
		{"today is this week", at(0), DueThisWeek},
		{"tomorrow", at(1), DueThisWeek},
		{"day 7", at(7), DueThisWeek},
		{"day 8", at(8), DueThisMonth},
		{"day 10", at(10), DueThisMonth},
		{"day 30", at(30), DueThisMonth},
		{"day 31", at(31), Upcoming},
		{"next year", at(400), Upcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Classify(tt.ref, today))
		})
	}
}

func TestClassify_NilIsTBDForAnyToday(t *testing.T) {
	for _, d := range []record.Date{
		record.NewDate(1999, time.January, 1),
		today,
		record.NewDate(2100, time.December, 31),
	} {
		assert.Equal(t, TBD, Classify(nil, d))
	}
}

func TestClassify_Deterministic(t *testing.T) {
	ref := at(5)
	first := Classify(ref, today)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(ref, today))
	}
}

func TestClassify_Scenario(t *testing.T) {
	refs := []*record.Date{at(-1), at(0), nil, at(10)}
	var got []Status
	for _, r := range refs {
		got = append(got, Classify(r, today))
	}
	assert.Equal(t, []Status{Overdue, DueThisWeek, TBD, DueThisMonth}, got)
}

func TestClassify_MonthEndRollover(t *testing.T) {
	jan31 := record.NewDate(2026, time.January, 31)
	feb7 := record.NewDate(2026, time.February, 7)
	feb8 := record.NewDate(2026, time.February, 8)
	assert.Equal(t, DueThisWeek, Classify(&feb7, jan31))
	assert.Equal(t, DueThisMonth, Classify(&feb8, jan31))
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"TBD":        TBD,
		"overdue":    Overdue,
		"ready":      Overdue,
		"Ready-Now":  Overdue,
		"week":       DueThisWeek,
		"this-week":  DueThisWeek,
		"month":      DueThisMonth,
		" upcoming ": Upcoming,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStatus("soonish")
	assert.ErrorContains(t, err, "unknown status")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Overdue", Label(Overdue, ScheduleFraming))
	assert.Equal(t, "Ready Now", Label(Overdue, ShipmentFraming))
	assert.Equal(t, "Due This Week", Label(DueThisWeek, ScheduleFraming))
	assert.Equal(t, "Not Ready Yet", Label(Upcoming, ShipmentFraming))
	assert.Equal(t, "TBD", Label(TBD, ShipmentFraming))
	assert.Equal(t, "weird", Label(Status("weird"), ScheduleFraming))
	assert.Equal(t, "shipment", ShipmentFraming.String())
	assert.Equal(t, "schedule", ScheduleFraming.String())
}

func TestUrgency(t *testing.T) {
	assert.Equal(t, "TBD", Urgency(nil, today))
	assert.Equal(t, "Today", Urgency(at(0), today))
	assert.Equal(t, "Tomorrow", Urgency(at(1), today))
	assert.Equal(t, "Yesterday", Urgency(at(-1), today))
	assert.Equal(t, "In 12 days", Urgency(at(12), today))
	assert.Equal(t, "3 days ago", Urgency(at(-3), today))
}
