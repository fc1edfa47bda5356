package output

import (
	"fmt"
	"io"

	"github.com/fieldworks/sitetrack/internal/csvexport"
	"github.com/fieldworks/sitetrack/internal/view"
)

func init() {
	RegisterFormatter(NewCSVFormatter())
}

// CSVFormatter writes the filtered record table as CSV.
type CSVFormatter struct{}

// Compile-time interface check.
var _ Formatter = (*CSVFormatter)(nil)

// NewCSVFormatter returns a new CSVFormatter.
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Name returns the format name.
func (c *CSVFormatter) Name() string {
	return "csv"
}

// ContentType returns the MIME type of the output.
func (c *CSVFormatter) ContentType() string {
	return csvexport.ContentType
}

// Format writes the header row and one line per visible record.
func (c *CSVFormatter) Format(v *view.View, w io.Writer) error {
	if v == nil {
		return fmt.Errorf("format csv: no view")
	}
	return csvexport.Write(w, v.Table.Headers, TableCells(v.Table))
}

// TableCells returns the display cells of every row.
func TableCells(t view.Table) [][]string {
	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Cells
	}
	return rows
}
