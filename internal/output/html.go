package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/status"
	"github.com/fieldworks/sitetrack/internal/view"
)

func init() {
	RegisterFormatter(NewHTMLFormatter())
}

// PageLink is one entry of the dashboard navigation.
type PageLink struct {
	Name  string
	Title string
}

// PageOptions adds the interactive parts of a served dashboard.
type PageOptions struct {
	// Pages fills the navigation bar. Empty hides it.
	Pages []PageLink

	// BasePath prefixes page links, e.g. "/pages/". Empty means "?"-only
	// links relative to the current document.
	BasePath string

	// Live adds the websocket script that reloads on every update.
	Live bool
}

// HTMLFormatter writes a view as a self-contained HTML dashboard.
type HTMLFormatter struct {
	nowFunc func() time.Time
}

// Compile-time interface check.
var _ Formatter = (*HTMLFormatter)(nil)

// NewHTMLFormatter returns a new HTMLFormatter.
func NewHTMLFormatter() *HTMLFormatter {
	return &HTMLFormatter{}
}

// Name returns the format name.
func (h *HTMLFormatter) Name() string {
	return "html"
}

// ContentType returns the MIME type of the output.
func (h *HTMLFormatter) ContentType() string {
	return "text/html; charset=utf-8"
}

var (
	htmlTmplOnce sync.Once
	htmlTmpl     *template.Template
)

func dashboardTemplate() *template.Template {
	htmlTmplOnce.Do(func() {
		htmlTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
			"json": func(v any) template.JS {
				b, _ := json.Marshal(v)
				return template.JS(b) //nolint:gosec // marshaled JSON is safe to embed
			},
			"money": view.FormatMoney,
			"pct": func(n int) string {
				return fmt.Sprintf("%d%%", n)
			},
			"percentOf": percentOf,
			"list": func(items ...any) []any {
				return items
			},
		}).Parse(htmlTemplate))
	})
	return htmlTmpl
}

// Format writes a static dashboard with no navigation.
func (h *HTMLFormatter) Format(v *view.View, w io.Writer) error {
	return h.FormatPage(v, w, PageOptions{})
}

// FormatPage writes the dashboard of v with navigation and filter controls.
func (h *HTMLFormatter) FormatPage(v *view.View, w io.Writer, opts PageOptions) error {
	if v == nil {
		return fmt.Errorf("format html: no view")
	}
	now := time.Now()
	if h.nowFunc != nil {
		now = h.nowFunc()
	}
	if err := dashboardTemplate().Execute(w, buildHTMLData(v, opts, now)); err != nil {
		return fmt.Errorf("execute html template: %w", err)
	}
	return nil
}

// htmlData holds all template data for the dashboard.
type htmlData struct {
	View        *view.View
	Opts        PageOptions
	GeneratedAt string
	Cards       []statusCard
	Statuses    []statusOption
	Windows     []windowOption
	ExportURL   string
	PrevMonth   string
	NextMonth   string
	Weekdays    []string
	Blanks      []struct{}
}

type statusCard struct {
	Key   string
	Label string
	Count int
}

type statusOption struct {
	Value    string
	Label    string
	Selected bool
}

type windowOption struct {
	Value    string
	Label    string
	Selected bool
}

func buildHTMLData(v *view.View, opts PageOptions, now time.Time) htmlData {
	f := status.ScheduleFraming
	if v.Framing == status.ShipmentFraming.String() {
		f = status.ShipmentFraming
	}
	d := htmlData{
		View:        v,
		Opts:        opts,
		GeneratedAt: now.UTC().Format("2006-01-02 15:04 UTC"),
		Weekdays:    []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		ExportURL:   "/api/pages/" + v.Page + "/export.csv",
	}
	if v.Query != "" {
		d.ExportURL += "?" + v.Query
	}
	for _, st := range status.All {
		d.Cards = append(d.Cards, statusCard{
			Key:   string(st),
			Label: status.Label(st, f),
			Count: v.FilteredStats.ByStatus[st],
		})
		d.Statuses = append(d.Statuses, statusOption{
			Value:    string(st),
			Label:    status.Label(st, f),
			Selected: v.Filter.Status == string(st),
		})
	}
	for _, win := range status.Windows {
		d.Windows = append(d.Windows, windowOption{
			Value:    string(win),
			Label:    win.Label(),
			Selected: v.Filter.Window == win,
		})
	}
	if cal := v.Calendar; cal != nil && len(cal.Days) > 0 {
		first := cal.Days[0].Date
		d.PrevMonth = monthLink(v, first.AddDays(-1))
		d.NextMonth = monthLink(v, first.AddDays(len(cal.Days)))
		d.Blanks = make([]struct{}, cal.Lead)
	}
	return d
}

// monthLink keeps the current filter and moves the calendar to m's month.
func monthLink(v *view.View, m record.Date) string {
	q := v.Filter.Encode()
	q.Set("month", m.Format("2006-01"))
	return "?" + q.Encode()
}

// percentOf renders n as a percentage of total for inline CSS widths.
func percentOf(n, total int) string {
	if total <= 0 {
		return "0"
	}
	return strconv.FormatFloat(float64(n)*100/float64(total), 'f', 2, 64)
}
