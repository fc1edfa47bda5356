// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package view

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/status"
)

// 2026-03-01 is a Sunday.
var today = record.NewDate(2026, time.March, 1)

func date(s string) *record.Date {
	return record.NormalizeDate(s, time.UTC)
}

func deliveryRows() []source.Row {
	return []source.Row{
		{"id": "d1", "po_number": "PO-1", "package_description": "Compressor skid", "supplier_name": "Acme", "project_phase": "Phase 1", "delivery_date": "2026-02-20"},
		{"id": "d2", "po_number": "PO-2", "package_description": "Heat exchanger", "supplier_name": "Beta", "project_phase": "Phase 2", "delivery_date": "2026-03-03"},
		{"id": "d3", "po_number": "PO-3", "package_description": "Valves", "supplier_name": "Acme", "project_phase": "Phase 1", "delivery_date": nil},
	}
}

func TestBuild_Deliveries(t *testing.T) {
	all := page.MapRows(page.Deliveries, deliveryRows(), time.UTC)
	st := filter.State{}.WithMatch(filter.Match{Field: "supplier_name", Value: "Acme"})
	filtered := filter.Apply(all, st, today)
	require.Len(t, filtered, 2)

	v := Build(page.Deliveries, all, filtered, today, Options{Filter: st})

	assert.Equal(t, "deliveries", v.Page)
	assert.Equal(t, "shipment", v.Framing)
	assert.Equal(t, "supplier_name=Acme", v.Query)
	assert.Equal(t, 3, v.Stats.Total)
	assert.Equal(t, 2, v.FilteredStats.Total)
	assert.Equal(t, 1, v.FilteredStats.TBD)

	wantOptions := []FilterOption{
		{Field: "supplier_name", Values: []string{"Acme", "Beta"}, Selected: "Acme"},
		{Field: "project_phase", Values: []string{"Phase 1", "Phase 2"}},
	}
	if diff := cmp.Diff(wantOptions, v.FilterOptions); diff != "" {
		t.Errorf("filter options mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, page.Headers(page.Deliveries), v.Table.Headers)
	require.Len(t, v.Table.Rows, 2)
	assert.False(t, v.Table.Empty)
	assert.Equal(t, "d1", v.Table.Rows[0].ID)
	assert.Equal(t, []string{"2026-02-20", "Ready Now"}, v.Table.Rows[0].Cells[:2])
	assert.Equal(t, status.Overdue, v.Table.Rows[0].Status)
	assert.Equal(t, []string{"TBD", "TBD"}, v.Table.Rows[1].Cells[:2])

	require.NotNil(t, v.Calendar)
	assert.Equal(t, "2026-03", v.Calendar.Month)
	assert.Nil(t, v.Schedule)
	assert.Nil(t, v.Map)
	assert.Nil(t, v.FloorPlan)
	assert.Nil(t, v.Procurement)
}

func TestBuild_Empty(t *testing.T) {
	v := Build(page.Deliveries, nil, nil, today, Options{})
	assert.True(t, v.Table.Empty)
	assert.Empty(t, v.Table.Rows)
	assert.Nil(t, v.Calendar)
	assert.Equal(t, 0, v.Charts.Status.Total)
	assert.Empty(t, v.Charts.Category.Slices)
}

func TestBuild_PageSpecificPanels(t *testing.T) {
	v := Build(page.Trackers, nil, nil, today, Options{})
	require.NotNil(t, v.Map)
	assert.Equal(t, DefaultSite, v.Map.Site)

	v = Build(page.Schedule, nil, nil, today, Options{})
	require.NotNil(t, v.Schedule)

	v = Build(page.Assets, nil, nil, today, Options{})
	require.NotNil(t, v.FloorPlan)

	v = Build(page.Shipments, nil, nil, today, Options{})
	require.NotNil(t, v.Procurement)
}

func TestStatusChart(t *testing.T) {
	records := []record.Record{
		{ID: "a", ReferenceDate: date("2026-02-01")},
		{ID: "b", ReferenceDate: date("2026-03-02")},
		{ID: "c", ReferenceDate: date("2026-03-05")},
		{ID: "d"},
	}
	c := StatusChart(records, today, status.ScheduleFraming)

	want := []Slice{
		{Key: "overdue", Label: "Overdue", Count: 1, Percent: 25, Color: "#d0021b"},
		{Key: "week", Label: "Due This Week", Count: 2, Percent: 50, Color: "#f5a623"},
		{Key: "month", Label: "Due This Month", Count: 0, Percent: 0, Color: "#4a90e2"},
		{Key: "upcoming", Label: "Upcoming", Count: 0, Percent: 0, Color: "#7ed321"},
		{Key: "tbd", Label: "TBD", Count: 1, Percent: 25, Color: "#9b9b9b"},
	}
	if diff := cmp.Diff(want, c.Slices); diff != "" {
		t.Errorf("slices mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, c.Total)
}

func TestCategoryChart(t *testing.T) {
	records := []record.Record{
		{Category: page.CategoryFabrication},
		{Category: "Acme"},
		{Category: page.CategoryFabrication},
		{},
	}
	c := CategoryChart(records, "category")

	want := []Slice{
		{Key: page.CategoryFabrication, Label: page.CategoryFabrication, Count: 2, Percent: 50, Color: "#7ed321"},
		{Key: "Acme", Label: "Acme", Count: 1, Percent: 25, Color: page.CategoryColor("Acme", 1)},
		{Key: Unspecified, Label: Unspecified, Count: 1, Percent: 25, Color: page.CategoryColor(Unspecified, 2)},
	}
	if diff := cmp.Diff(want, c.Slices); diff != "" {
		t.Errorf("slices mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelAndTruncate(t *testing.T) {
	assert.Equal(t, "Pump", Label(record.Record{ID: "x", Fields: map[string]string{"name": "Pump"}}))
	assert.Equal(t, "x", Label(record.Record{ID: "x"}))
	assert.Equal(t, "Unknown", Label(record.Record{}))

	assert.Equal(t, "short", Truncate("short", 20))
	assert.Equal(t, "Compressor skid 1500...", Truncate("Compressor skid 1500 HP", 20))
}
