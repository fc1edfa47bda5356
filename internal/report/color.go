// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package report

import (
	"strconv"

	"github.com/fatih/color"

	"github.com/fieldworks/sitetrack/internal/status"
	"github.com/fieldworks/sitetrack/internal/view"
)

// Shared color printers for report sections.
var (
	colorRed    = color.New(color.FgRed)
	colorYellow = color.New(color.FgYellow)
	colorBlue   = color.New(color.FgBlue)
	colorGreen  = color.New(color.FgGreen)
	colorGray   = color.New(color.FgHiBlack)
	colorBold   = color.New(color.Bold)
)

// statusColors pairs each bucket with its printer.
var statusColors = map[status.Status]*color.Color{
	status.Overdue:      colorRed,
	status.DueThisWeek:  colorYellow,
	status.DueThisMonth: colorBlue,
	status.Upcoming:     colorGreen,
	status.TBD:          colorGray,
}

// labelColors maps every framed status label back to its printer.
var labelColors = func() map[string]*color.Color {
	m := make(map[string]*color.Color)
	for _, f := range []status.Framing{status.ScheduleFraming, status.ShipmentFraming} {
		for _, st := range status.All {
			m[status.Label(st, f)] = statusColors[st]
		}
	}
	return m
}()

// ColorStatusLabel colors a framed status label such as "Overdue" or
// "Ready This Week". Unknown labels are returned unchanged.
func ColorStatusLabel(val string) string {
	if c, ok := labelColors[val]; ok {
		return c.Sprint(val)
	}
	return val
}

// ColorHealth colors a schedule health label.
func ColorHealth(val string) string {
	switch val {
	case view.HealthCritical:
		return colorRed.Sprint(val)
	case view.HealthAtRisk:
		return colorYellow.Sprint(val)
	case view.HealthHealthy:
		return colorGreen.Sprint(val)
	default:
		return val
	}
}

// ColorDirection colors trend direction labels.
func ColorDirection(val string) string {
	switch val {
	case "improving":
		return colorGreen.Sprint(val)
	case "degrading":
		return colorRed.Sprint(val)
	default:
		return val
	}
}

// ColorYesNo colors "yes" green and "no" yellow.
func ColorYesNo(val string) string {
	switch val {
	case "yes":
		return colorGreen.Sprint(val)
	case "no":
		return colorYellow.Sprint(val)
	default:
		return val
	}
}

// SectionTitle renders a bold section title.
func SectionTitle(title string) string {
	return colorBold.Sprint(title)
}

// colorCount colors a count: 0 is green, >0 is red.
func colorCount(n int) string {
	s := strconv.Itoa(n)
	if n == 0 {
		return colorGreen.Sprint(s)
	}
	return colorRed.Sprint(s)
}
