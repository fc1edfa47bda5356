// Package view turns filtered records into the declarative model a dashboard
// renders. Build is a pure function of its inputs: the same records, filter
// and day always produce the same View.
package view

import (
	"slices"
	"strings"
	"time"

	"github.com/fieldworks/sitetrack/internal/aggregate"
	"github.com/fieldworks/sitetrack/internal/filter"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Site is the project site used for the tracker geofence.
type Site struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius_m"`
}

// DefaultSite is the site used when none is configured.
var DefaultSite = Site{Name: "Project Site", Lat: 28.954, Lon: -95.359, RadiusM: 500}

// Options parameterize Build beyond the records themselves.
type Options struct {
	Filter filter.State
	Site   Site

	// Month is any day of the calendar month to lay out. Zero means the
	// month of today.
	Month record.Date

	// Now is the instant tracker activity is measured against. Zero means
	// midnight UTC of today.
	Now time.Time
}

// View is everything one dashboard page shows.
type View struct {
	Page    string      `json:"page"`
	Title   string      `json:"title"`
	Today   record.Date `json:"today"`
	Framing string      `json:"framing"`

	Filter        filter.State   `json:"filter"`
	Query         string         `json:"query,omitempty"`
	FilterOptions []FilterOption `json:"filter_options"`

	// Stats covers every loaded record; FilteredStats only the visible ones.
	Stats         aggregate.Statistics `json:"stats"`
	FilteredStats aggregate.Statistics `json:"filtered_stats"`

	Table    Table     `json:"table"`
	Charts   Charts    `json:"charts"`
	Calendar *Calendar `json:"calendar,omitempty"`

	Schedule    *Schedule    `json:"schedule,omitempty"`
	Map         *Map         `json:"map,omitempty"`
	FloorPlan   *FloorPlan   `json:"floor_plan,omitempty"`
	Procurement *Procurement `json:"procurement,omitempty"`

	// Error is set when the last load failed. Stale means the rows come
	// from an earlier snapshot.
	Error     string    `json:"error,omitempty"`
	Stale     bool      `json:"stale,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// FilterOption lists the distinct values of one filterable field.
type FilterOption struct {
	Field    string   `json:"field"`
	Values   []string `json:"values"`
	Selected string   `json:"selected,omitempty"`
}

// Table is the record table, already rendered to display strings.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
	Empty   bool     `json:"empty"`
}

// Row is one table row.
type Row struct {
	ID     string        `json:"id"`
	Cells  []string      `json:"cells"`
	Status status.Status `json:"status"`
	Badge  page.Badge    `json:"badge"`
}

// Build assembles the view of page p. all is every loaded record and
// filtered the subset that passed the filter.
func Build(p page.Page, all, filtered []record.Record, today record.Date, opts Options) *View {
	if opts.Site == (Site{}) {
		opts.Site = DefaultSite
	}
	if opts.Month.IsZero() {
		opts.Month = today
	}
	if opts.Now.IsZero() {
		opts.Now = today.Time(time.UTC)
	}

	v := &View{
		Page:          p.Name(),
		Title:         p.Title(),
		Today:         today,
		Framing:       p.Framing().String(),
		Filter:        opts.Filter,
		Query:         opts.Filter.Encode().Encode(),
		FilterOptions: filterOptions(p, all, opts.Filter),
		Stats:         aggregate.Aggregate(all, today),
		FilteredStats: aggregate.Aggregate(filtered, today),
		Table:         buildTable(p, filtered, today),
		Charts:        buildCharts(p, filtered, today),
	}
	if hasDates(all) {
		v.Calendar = BuildCalendar(filtered, opts.Month, today)
	}

	switch p.Name() {
	case page.Schedule.Name():
		v.Schedule = BuildSchedule(all, filtered, today)
	case page.Trackers.Name():
		v.Map = BuildMap(all, filtered, opts.Site, opts.Now)
	case page.Assets.Name():
		v.FloorPlan = BuildFloorPlan(filtered)
	case page.PurchaseOrders.Name(), page.Shipments.Name():
		v.Procurement = BuildProcurement(p, filtered)
	}
	return v
}

func buildTable(p page.Page, records []record.Record, today record.Date) Table {
	cells := page.Rows(p, records, today)
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			ID:     r.ID,
			Cells:  cells[i],
			Status: status.Classify(r.ReferenceDate, today),
			Badge:  page.BadgeFor(r.StatusRaw),
		}
	}
	return Table{
		Headers: page.Headers(p),
		Rows:    rows,
		Empty:   len(rows) == 0,
	}
}

// filterOptions collects the sorted distinct values of every filter field.
// Values come from all records so choosing one never hides the others.
func filterOptions(p page.Page, all []record.Record, st filter.State) []FilterOption {
	fields := p.Filters()
	out := make([]FilterOption, 0, len(fields))
	for _, f := range fields {
		seen := make(map[string]bool)
		var values []string
		for _, r := range all {
			v := strings.TrimSpace(r.Field(f))
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		slices.Sort(values)
		out = append(out, FilterOption{Field: f, Values: values, Selected: st.Value(f)})
	}
	return out
}

func hasDates(records []record.Record) bool {
	return slices.ContainsFunc(records, record.Record.HasDate)
}

// labelFields are tried in order when a record needs a one-line label.
var labelFields = []string{
	"activity_name", "package_description", "name", "po_description",
	"part_description", "install_description",
}

// Label returns a short human readable name for r.
func Label(r record.Record) string {
	for _, f := range labelFields {
		if v := strings.TrimSpace(r.Fields[f]); v != "" {
			return v
		}
	}
	if r.ID != "" {
		return r.ID
	}
	return "Unknown"
}

// Truncate shortens s to n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n]) + "..."
}
