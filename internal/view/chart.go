// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package view

import (
	"github.com/fieldworks/sitetrack/internal/aggregate"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Unspecified is the chart bucket for records with no group value.
const Unspecified = "Unspecified"

var statusColors = map[status.Status]string{
	status.Overdue:      "#d0021b",
	status.DueThisWeek:  "#f5a623",
	status.DueThisMonth: "#4a90e2",
	status.Upcoming:     "#7ed321",
	status.TBD:          "#9b9b9b",
}

// Charts holds the distributions drawn above the table.
type Charts struct {
	Status   Chart `json:"status"`
	Category Chart `json:"category"`
}

// Chart is one doughnut or bar chart.
type Chart struct {
	Title  string  `json:"title"`
	Total  int     `json:"total"`
	Slices []Slice `json:"slices"`
}

// Slice is one labeled count of a chart.
type Slice struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

func buildCharts(p page.Page, records []record.Record, today record.Date) Charts {
	return Charts{
		Status:   StatusChart(records, today, p.Framing()),
		Category: CategoryChart(records, p.GroupField()),
	}
}

// StatusChart counts records per derived status in fixed urgency order.
// Empty buckets are kept so the legend does not shift between refreshes.
func StatusChart(records []record.Record, today record.Date, f status.Framing) Chart {
	g := aggregate.GroupByStatus(records, today)
	c := Chart{Title: "Status", Total: g.Total()}
	for _, k := range g.Keys() {
		st := status.Status(k)
		c.Slices = append(c.Slices, Slice{
			Key:     k,
			Label:   status.Label(st, f),
			Count:   g.Count(k),
			Percent: aggregate.RoundPercentage(g.Count(k), c.Total),
			Color:   statusColors[st],
		})
	}
	return c
}

// CategoryChart counts records per value of field in first-seen order.
func CategoryChart(records []record.Record, field string) Chart {
	g := aggregate.GroupBy(records, field, Unspecified)
	c := Chart{Title: "By " + field, Total: g.Total()}
	for i, k := range g.Keys() {
		c.Slices = append(c.Slices, Slice{
			Key:     k,
			Label:   k,
			Count:   g.Count(k),
			Percent: aggregate.RoundPercentage(g.Count(k), c.Total),
			Color:   page.CategoryColor(k, i),
		})
	}
	return c
}
