// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fieldworks/sitetrack/internal/status"
	"github.com/fieldworks/sitetrack/internal/view"
)

func init() {
	RegisterFormatter(NewMarkdownFormatter())
}

// MarkdownFormatter writes a view as a Markdown summary plus record table.
type MarkdownFormatter struct{}

// Compile-time interface check.
var _ Formatter = (*MarkdownFormatter)(nil)

// NewMarkdownFormatter returns a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Name returns the format name.
func (m *MarkdownFormatter) Name() string {
	return "markdown"
}

// ContentType returns the MIME type of the output.
func (m *MarkdownFormatter) ContentType() string {
	return "text/markdown; charset=utf-8"
}

// Format writes v to w as:
//   - a title heading with the date and active filter
//   - an error note when the source failed
//   - a status summary table
//   - the filtered record table, or a "no records" line
func (m *MarkdownFormatter) Format(v *view.View, w io.Writer) error {
	if v == nil {
		return fmt.Errorf("format markdown: no view")
	}
	if err := writeHeader(w, v); err != nil {
		return err
	}
	if err := writeStatusTable(w, v); err != nil {
		return err
	}
	return writeRecordTable(w, v.Table)
}

func writeHeader(w io.Writer, v *view.View) error {
	if _, err := fmt.Fprintf(w, "# %s\n\n", v.Title); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	line := fmt.Sprintf("**Date:** %s | **Records:** %d | **Shown:** %d", v.Today, v.Stats.Total, len(v.Table.Rows))
	if v.Query != "" {
		line += fmt.Sprintf(" | **Filter:** `%s`", v.Query)
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", line); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if v.Error != "" {
		note := "> **Source error:** " + v.Error
		if v.Stale {
			note += " (showing last snapshot)"
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", note); err != nil {
			return fmt.Errorf("write error note: %w", err)
		}
	}
	return nil
}

func writeStatusTable(w io.Writer, v *view.View) error {
	f := status.ScheduleFraming
	if v.Framing == status.ShipmentFraming.String() {
		f = status.ShipmentFraming
	}
	var b strings.Builder
	b.WriteString("| Status | Count |\n|--------|-------|\n")
	for _, st := range status.All {
		fmt.Fprintf(&b, "| %s | %d |\n", status.Label(st, f), v.FilteredStats.ByStatus[st])
	}
	b.WriteString("\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write status table: %w", err)
	}
	return nil
}

func writeRecordTable(w io.Writer, t view.Table) error {
	if t.Empty {
		if _, err := fmt.Fprintf(w, "_No records match the current filters._\n"); err != nil {
			return fmt.Errorf("write record table: %w", err)
		}
		return nil
	}

	var b strings.Builder
	writeMarkdownRow(&b, t.Headers)
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	writeMarkdownRow(&b, seps)
	for _, r := range t.Rows {
		writeMarkdownRow(&b, r.Cells)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write record table: %w", err)
	}
	return nil
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeMarkdownCell(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// escapeMarkdownCell keeps a value inside its table cell.
func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
