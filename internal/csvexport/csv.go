// Package csvexport writes dashboard tables as comma-separated text.
//
// The output is byte-for-byte stable for downstream spreadsheet tooling: a
// field is quoted only when it contains a comma, a double quote or a line
// break, internal quotes are doubled, and lines are joined with "\n" with no
// trailing newline.
package csvexport

import (
	"fmt"
	"io"
	"strings"

	"github.com/fieldworks/sitetrack/internal/record"
)

// ContentType is the MIME type for CSV downloads.
const ContentType = "text/csv; charset=utf-8"

// Format renders headers and rows as CSV text.
func Format(headers []string, rows [][]string) string {
	var b strings.Builder
	writeLine(&b, headers)
	for _, row := range rows {
		b.WriteByte('\n')
		writeLine(&b, row)
	}
	return b.String()
}

// Write renders headers and rows to w.
func Write(w io.Writer, headers []string, rows [][]string) error {
	if _, err := io.WriteString(w, Format(headers, rows)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Escape quotes a single field when needed.
func Escape(field string) string {
	if !strings.ContainsAny(field, ",\"\n\r") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Filename returns the download name for an export taken on d.
func Filename(base string, d record.Date) string {
	return fmt.Sprintf("%s_%s.csv", base, d)
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Escape(f))
	}
}
