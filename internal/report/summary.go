package report

import (
	"fmt"
	"io"

	"github.com/fieldworks/sitetrack/internal/status"
	"github.com/fieldworks/sitetrack/internal/view"
)

// MaxRecords caps the rows printed by the records section.
const MaxRecords = 50

// summarySection reports the status counts of the whole page next to the
// filtered subset.
type summarySection struct {
	v *view.View
}

func (s *summarySection) Name() string        { return "summary" }
func (s *summarySection) Description() string { return "Record counts per status" }

func (s *summarySection) Analyze(in *Input) error {
	s.v = in.View
	return nil
}

func (s *summarySection) Render(w io.Writer) error {
	heading(w, "Summary")
	all, shown := s.v.Stats, s.v.FilteredStats
	f := framing(s.v)

	tbl := NewTable(
		Column{Header: "Status", Color: ColorStatusLabel},
		Column{Header: "All", Align: AlignRight},
		Column{Header: "Shown", Align: AlignRight},
	)
	tbl.AddRow("Total", itoa(all.Total), itoa(shown.Total))
	for _, st := range status.All {
		tbl.AddRow(status.Label(st, f), itoa(all.ByStatus[st]), itoa(shown.ByStatus[st]))
	}
	if all.Milestones > 0 {
		tbl.AddRow("Milestones", itoa(all.Milestones), itoa(shown.Milestones))
	}
	if all.Critical > 0 {
		tbl.AddRow("Critical", itoa(all.Critical), itoa(shown.Critical))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

// breakdownSection renders the status and category charts as tables.
type breakdownSection struct {
	charts view.Charts
}

func (s *breakdownSection) Name() string        { return "breakdown" }
func (s *breakdownSection) Description() string { return "Status and category distribution" }

func (s *breakdownSection) Analyze(in *Input) error {
	if in.View.Charts.Status.Total == 0 {
		return fmt.Errorf("breakdown: no records: %w", ErrNotApplicable)
	}
	s.charts = in.View.Charts
	return nil
}

func (s *breakdownSection) Render(w io.Writer) error {
	for _, c := range []view.Chart{s.charts.Status, s.charts.Category} {
		if len(c.Slices) == 0 {
			continue
		}
		heading(w, c.Title)
		tbl := NewTable(
			Column{Header: "Value", Color: ColorStatusLabel, MaxWidth: 40},
			Column{Header: "Count", Align: AlignRight},
			Column{Header: "Share", Align: AlignRight},
		)
		for _, sl := range c.Slices {
			tbl.AddRow(sl.Label, itoa(sl.Count), percent(sl.Percent))
		}
		if err := tbl.Render(w); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

// recordsSection prints the filtered record table.
type recordsSection struct {
	table view.Table
}

func (s *recordsSection) Name() string        { return "records" }
func (s *recordsSection) Description() string { return "The filtered record table" }

func (s *recordsSection) Analyze(in *Input) error {
	s.table = in.View.Table
	return nil
}

func (s *recordsSection) Render(w io.Writer) error {
	heading(w, fmt.Sprintf("Records (%d)", len(s.table.Rows)))
	if s.table.Empty {
		_, _ = fmt.Fprintf(w, "  No records match the current filters.\n\n")
		return nil
	}

	cols := make([]Column, len(s.table.Headers))
	for i, h := range s.table.Headers {
		cols[i] = Column{Header: h, Color: ColorStatusLabel, MaxWidth: 40}
	}
	tbl := NewTable(cols...)
	for i, r := range s.table.Rows {
		if i == MaxRecords {
			break
		}
		tbl.AddRow(r.Cells...)
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	if n := len(s.table.Rows) - MaxRecords; n > 0 {
		_, _ = fmt.Fprintf(w, "  ... and %d more\n", n)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}
