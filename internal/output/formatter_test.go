package output

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/view"
)

var today = record.NewDate(2026, time.March, 1)

func buildView(p page.Page, rows []source.Row) *view.View {
	records := page.MapRows(p, rows, time.UTC)
	return view.Build(p, records, records, today, view.Options{})
}

func deliveriesView() *view.View {
	return buildView(page.Deliveries, []source.Row{
		{"po_number": "PO-1", "package_description": "Compressor skid", "supplier_name": "Acme", "delivery_date": "2026-02-20"},
		{"po_number": "PO-2", "package_description": "Heat exchanger, 2 shells", "supplier_name": "Beta", "delivery_date": "2026-03-03"},
		{"po_number": "PO-3", "package_description": `Valves "A|B"`, "supplier_name": "Acme"},
	})
}

// Compile-time interface check.
var _ Formatter = (*stubFormatter)(nil)

type stubFormatter struct{}

func (s *stubFormatter) Name() string                         { return "stub" }
func (s *stubFormatter) Format(_ *view.View, _ io.Writer) error { return nil }

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "html", "json", "markdown"}, Names())

	for _, name := range Names() {
		f, err := GetFormatter(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
	}

	_, err := GetFormatter("sarif")
	require.Error(t, err)
	assert.Equal(t, `unknown format: "sarif" (available: csv, html, json, markdown)`, err.Error())
}

func TestRegistry_Reset(t *testing.T) {
	restore := resetFmtForTesting()
	RegisterFormatter(&stubFormatter{})
	assert.Equal(t, []string{"stub"}, Names())
	restore()
	assert.Contains(t, Names(), "json")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json; charset=utf-8", ContentType(NewJSONFormatter()))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(NewCSVFormatter()))
	assert.Equal(t, "text/html; charset=utf-8", ContentType(NewHTMLFormatter()))
	assert.Equal(t, "text/plain; charset=utf-8", ContentType(&stubFormatter{}))
}

func TestNilView(t *testing.T) {
	for _, name := range Names() {
		f, err := GetFormatter(name)
		require.NoError(t, err)
		assert.Error(t, f.Format(nil, io.Discard), name)
	}
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter().Format(deliveriesView(), &buf))

	want := "Delivery Date,Status,PO Number,Package Description,Tag Number,Supplier,Phase,Notes\n" +
		"2026-02-20,Ready Now,PO-1,Compressor skid,,Acme,,\n" +
		`2026-03-03,Ready This Week,PO-2,"Heat exchanger, 2 shells",,Beta,,` + "\n" +
		`TBD,TBD,PO-3,"Valves ""A|B""",,Acme,,`
	assert.Equal(t, want, buf.String())
}

func TestCSVFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter().Format(buildView(page.Deliveries, nil), &buf))
	assert.Equal(t, "Delivery Date,Status,PO Number,Package Description,Tag Number,Supplier,Phase,Notes", buf.String())
}
