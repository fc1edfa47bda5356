// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fieldworks/sitetrack/internal/state"
	"github.com/fieldworks/sitetrack/internal/view"
)

// calendarSection lists the busy days of the calendar month.
type calendarSection struct {
	cal *view.Calendar
}

func (s *calendarSection) Name() string        { return "calendar" }
func (s *calendarSection) Description() string { return "Dated records for the month" }

func (s *calendarSection) Analyze(in *Input) error {
	cal := in.View.Calendar
	if cal == nil {
		return fmt.Errorf("calendar: page has no dates: %w", ErrNotApplicable)
	}
	s.cal = cal
	return nil
}

func (s *calendarSection) Render(w io.Writer) error {
	heading(w, s.cal.Title)
	tbl := NewTable(
		Column{Header: "Day"},
		Column{Header: "Items"},
	)
	for _, d := range s.cal.Days {
		if len(d.Items) == 0 {
			continue
		}
		labels := make([]string, len(d.Items))
		for i, it := range d.Items {
			labels[i] = it.Label
		}
		items := strings.Join(labels, ", ")
		if d.More > 0 {
			items += fmt.Sprintf(", +%d more", d.More)
		}
		day := d.Date.Format("Mon Jan 02")
		if d.Today {
			day += " *"
		}
		tbl.AddRow(day, items)
	}
	if tbl.Len() == 0 {
		_, _ = fmt.Fprintf(w, "  Nothing scheduled this month.\n\n")
		return nil
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// trackersSection summarizes GPS trackers against the site geofence.
type trackersSection struct {
	m *view.Map
}

func (s *trackersSection) Name() string        { return "trackers" }
func (s *trackersSection) Description() string { return "GPS tracker positions and activity" }

func (s *trackersSection) Analyze(in *Input) error {
	if in.View.Map == nil {
		return fmt.Errorf("trackers: page has no map: %w", ErrNotApplicable)
	}
	s.m = in.View.Map
	return nil
}

func (s *trackersSection) Render(w io.Writer) error {
	m := s.m
	heading(w, "Trackers near "+m.Site.Name)
	_, _ = fmt.Fprintf(w, "  Total: %d  On site: %d  In transit: %d  Active (%dd): %d  Linked: %d  Unlinked: %d\n\n",
		m.Total, m.OnSite, m.InTransit, int(view.ActiveWithin/(24*time.Hour)), m.Active, m.Linked, m.Unlinked)
	if len(m.Markers) == 0 {
		return nil
	}

	tbl := NewTable(
		Column{Header: "Tracker", MaxWidth: 32},
		Column{Header: "Status"},
		Column{Header: "Distance", Align: AlignRight},
		Column{Header: "On site", Color: ColorYesNo},
		Column{Header: "Active", Color: ColorYesNo},
		Column{Header: "Last seen"},
	)
	for _, mk := range m.Markers {
		seen := "never"
		if !mk.LastSeen.IsZero() {
			seen = mk.LastSeen.Format("2006-01-02 15:04")
		}
		tbl.AddRow(mk.Name, mk.Status, fmt.Sprintf("%.1f km", mk.DistanceKm),
			yesNo(mk.InGeofence), yesNo(mk.Active), seen)
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// zonesSection reports site-plan assets per zone and off-site status.
type zonesSection struct {
	fp *view.FloorPlan
}

func (s *zonesSection) Name() string        { return "zones" }
func (s *zonesSection) Description() string { return "Asset placement by zone" }

func (s *zonesSection) Analyze(in *Input) error {
	if in.View.FloorPlan == nil {
		return fmt.Errorf("zones: page has no floor plan: %w", ErrNotApplicable)
	}
	s.fp = in.View.FloorPlan
	return nil
}

func (s *zonesSection) Render(w io.Writer) error {
	fp := s.fp
	heading(w, "Zones")
	_, _ = fmt.Fprintf(w, "  On site: %d  Installed: %d (%s)\n\n", fp.Onsite, fp.Installed, percent(fp.InstallRate))

	tbl := NewTable(
		Column{Header: "Zone"},
		Column{Header: "Installed", Align: AlignRight},
		Column{Header: "On site", Align: AlignRight},
		Column{Header: "Assets", Align: AlignRight},
	)
	for _, z := range fp.Zones {
		tbl.AddRow(z.Label, itoa(z.Installed), itoa(z.OnSite), itoa(len(z.Assets)))
	}
	for _, st := range fp.Offsite {
		tbl.AddRow(st.Label, "", "", itoa(len(st.Assets)))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// procurementSection prints the purchase order and shipment KPIs.
type procurementSection struct {
	p *view.Procurement
}

func (s *procurementSection) Name() string        { return "procurement" }
func (s *procurementSection) Description() string { return "Purchase order and shipment totals" }

func (s *procurementSection) Analyze(in *Input) error {
	if in.View.Procurement == nil {
		return fmt.Errorf("procurement: %w", ErrNotApplicable)
	}
	s.p = in.View.Procurement
	return nil
}

func (s *procurementSection) Render(w io.Writer) error {
	p := s.p
	heading(w, "Procurement")
	if p.PurchaseOrders > 0 {
		_, _ = fmt.Fprintf(w, "  Purchase orders: %d\n", p.PurchaseOrders)
		_, _ = fmt.Fprintf(w, "  Total value:     %s\n", view.FormatMoney(p.TotalValue))
	}
	if p.Shipments > 0 {
		_, _ = fmt.Fprintf(w, "  Shipments:       %d\n", p.Shipments)
		_, _ = fmt.Fprintf(w, "  Delivered:       %d (%s)\n", p.Delivered, percent(p.DeliveredRate))
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// trendSection compares status counts over recent refreshes.
type trendSection struct {
	trends *state.TrendResult
}

func (s *trendSection) Name() string        { return "trend" }
func (s *trendSection) Description() string { return "Status count trends over recent refreshes" }

func (s *trendSection) Analyze(in *Input) error {
	trends := state.ComputeTrends(in.History, state.DefaultWindowSize)
	if trends == nil {
		return fmt.Errorf("trend: need at least 2 refreshes: %w", ErrNotApplicable)
	}
	s.trends = trends
	return nil
}

func (s *trendSection) Render(w io.Writer) error {
	heading(w, "Trend")
	_, _ = fmt.Fprintf(w, "  Window: last %d of %d refreshes\n\n", s.trends.DataPoints, s.trends.WindowSize)

	tbl := NewTable(
		Column{Header: "Status"},
		Column{Header: "Current", Align: AlignRight},
		Column{Header: "Previous", Align: AlignRight},
		Column{Header: "Delta", Align: AlignRight},
		Column{Header: "Direction", Color: ColorDirection},
	)
	t := s.trends.TotalTrend
	tbl.AddRow("total", itoa(t.Current), itoa(t.Previous), formatDelta(t.Delta), string(t.Direction))
	for _, k := range slices.Sorted(maps.Keys(s.trends.StatusTrends)) {
		st := s.trends.StatusTrends[k]
		tbl.AddRow(k, itoa(st.Current), itoa(st.Previous), formatDelta(st.Delta), string(st.Direction))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return nil
}
