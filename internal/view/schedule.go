package view

import (
	"cmp"
	"slices"

	"github.com/fieldworks/sitetrack/internal/aggregate"
	"github.com/fieldworks/sitetrack/internal/page"
	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Schedule view limits.
const (
	TimelineDaysBack   = 14
	TimelineDaysAhead  = 56
	MaxTimelineBars    = 40
	MaxMilestones      = 10
	MaxKeyActivities   = 15
	KeyActivityHorizon = 30
	HealthyPercent     = 80
	AtRiskPercent      = 60
)

// Health labels.
const (
	HealthHealthy  = "Healthy"
	HealthAtRisk   = "At Risk"
	HealthCritical = "Critical"
)

// Schedule holds the extra panels of the project schedule page.
type Schedule struct {
	Timeline           Timeline   `json:"timeline"`
	UpcomingMilestones []Activity `json:"upcoming_milestones"`
	KeyActivities      []Activity `json:"key_activities"`
	KeyActivityCount   int        `json:"key_activity_count"`
	Health             Health     `json:"health"`
}

// Timeline is a Gantt strip centered on today.
type Timeline struct {
	Start record.Date `json:"start"`
	End   record.Date `json:"end"`
	Days  int         `json:"days"`

	// TodayOffset is today's position in days from Start.
	TodayOffset int   `json:"today_offset"`
	Bars        []Bar `json:"bars"`

	// Total counts the relevant activities before truncation.
	Total int `json:"total"`
}

// Bar is one activity on the timeline, clipped to the window.
type Bar struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Category   string      `json:"category"`
	Color      string      `json:"color"`
	Start      record.Date `json:"start"`
	Finish     record.Date `json:"finish"`
	Offset     int         `json:"offset"`
	Span       int         `json:"span"`
	InProgress bool        `json:"in_progress,omitempty"`
	Milestone  bool        `json:"milestone,omitempty"`
}

// Activity is a schedule row in the milestone and key activity lists.
type Activity struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Category  string      `json:"category"`
	Status    string      `json:"status"`
	Badge     page.Badge  `json:"badge"`
	Start     string      `json:"start,omitempty"`
	Finish    record.Date `json:"finish"`
	DaysUntil int         `json:"days_until"`
	Urgency   string      `json:"urgency"`
	Milestone bool        `json:"milestone,omitempty"`
	Critical  bool        `json:"critical,omitempty"`
	Percent   string      `json:"percent_complete,omitempty"`
}

// Health summarizes schedule progress.
type Health struct {
	Complete   int    `json:"complete"`
	InProgress int    `json:"in_progress"`
	NotStarted int    `json:"not_started"`
	Overdue    int    `json:"overdue"`
	Dated      int    `json:"dated"`
	OnTime     int    `json:"on_time_percent"`
	Label      string `json:"label"`
}

// BuildSchedule computes the schedule panels. The timeline follows the
// filter; milestones, key activities and health cover the whole schedule.
func BuildSchedule(all, filtered []record.Record, today record.Date) *Schedule {
	keys := KeyActivities(all, today)
	s := &Schedule{
		Timeline:           BuildTimeline(filtered, today),
		UpcomingMilestones: UpcomingMilestones(all, today),
		KeyActivityCount:   len(keys),
		Health:             ScheduleHealth(all, today),
	}
	if len(keys) > MaxKeyActivities {
		keys = keys[:MaxKeyActivities]
	}
	s.KeyActivities = keys
	return s
}

// BuildTimeline keeps activities that overlap the window from 14 days back
// to 56 days ahead. In-progress work sorts first, then milestones, then by
// finish and start date.
func BuildTimeline(records []record.Record, today record.Date) Timeline {
	start := today.AddDays(-TimelineDaysBack)
	end := today.AddDays(TimelineDaysAhead)
	tl := Timeline{
		Start:       start,
		End:         end,
		Days:        start.DaysUntil(end),
		TodayOffset: TimelineDaysBack,
	}

	var bars []Bar
	for _, r := range records {
		from := page.StartDate(r)
		to := r.ReferenceDate
		if from == nil || to == nil || !page.UsableName(r) {
			continue
		}
		if r.Category == "" || r.Category == page.CategoryOther {
			continue
		}
		if to.Before(start) || from.After(end) {
			continue
		}
		lo, hi := *from, *to
		if lo.Before(start) {
			lo = start
		}
		if hi.After(end) {
			hi = end
		}
		bars = append(bars, Bar{
			ID:         r.ID,
			Name:       r.Fields["activity_name"],
			Category:   r.Category,
			Color:      page.CategoryColor(r.Category, 0),
			Start:      *from,
			Finish:     *to,
			Offset:     start.DaysUntil(lo),
			Span:       max(lo.DaysUntil(hi), 1),
			InProgress: !from.After(today) && !to.Before(today),
			Milestone:  r.IsMilestone,
		})
	}

	slices.SortStableFunc(bars, func(a, b Bar) int {
		if a.InProgress != b.InProgress {
			return boolFirst(a.InProgress)
		}
		if a.Milestone != b.Milestone {
			return boolFirst(a.Milestone)
		}
		if c := a.Finish.Compare(b.Finish); c != 0 {
			return c
		}
		return a.Start.Compare(b.Start)
	})
	tl.Total = len(bars)
	if len(bars) > MaxTimelineBars {
		bars = bars[:MaxTimelineBars]
	}
	tl.Bars = bars
	return tl
}

func boolFirst(b bool) int {
	if b {
		return -1
	}
	return 1
}

// UpcomingMilestones returns the next milestones finishing today or later.
func UpcomingMilestones(records []record.Record, today record.Date) []Activity {
	var out []Activity
	for _, r := range records {
		if !r.IsMilestone || r.ReferenceDate == nil || r.ReferenceDate.Before(today) {
			continue
		}
		out = append(out, activity(r, today))
	}
	sortByFinish(out)
	if len(out) > MaxMilestones {
		out = out[:MaxMilestones]
	}
	return out
}

// KeyActivities returns named activities finishing within the next 30 days
// that are milestones, flagged critical, in progress or mention a critical
// event. The result is sorted by finish date and not truncated.
func KeyActivities(records []record.Record, today record.Date) []Activity {
	horizon := today.AddDays(KeyActivityHorizon)
	var out []Activity
	for _, r := range records {
		if r.ReferenceDate == nil || r.ReferenceDate.Before(today) || r.ReferenceDate.After(horizon) {
			continue
		}
		if !page.UsableName(r) {
			continue
		}
		if r.IsMilestone || r.IsCritical || r.StatusRaw == page.ActivityInProgress ||
			page.HasCriticalKeyword(r.Fields["activity_name"]) {
			out = append(out, activity(r, today))
		}
	}
	sortByFinish(out)
	return out
}

func sortByFinish(a []Activity) {
	slices.SortStableFunc(a, func(x, y Activity) int {
		return cmp.Compare(x.DaysUntil, y.DaysUntil)
	})
}

func activity(r record.Record, today record.Date) Activity {
	st := page.ActivityStatus(r, today)
	return Activity{
		ID:        r.ID,
		Name:      Label(r),
		Category:  r.Category,
		Status:    st,
		Badge:     page.BadgeFor(st),
		Start:     r.Fields["start_date"],
		Finish:    *r.ReferenceDate,
		DaysUntil: today.DaysUntil(*r.ReferenceDate),
		Urgency:   status.Urgency(r.ReferenceDate, today),
		Milestone: r.IsMilestone,
		Critical:  r.IsCritical,
		Percent:   r.Fields["percent_complete"],
	}
}

// ScheduleHealth counts activities by progress status. The on-time share is
// (complete + in progress - overdue) over activities with a finish date,
// floored at zero.
func ScheduleHealth(records []record.Record, today record.Date) Health {
	var h Health
	for _, r := range records {
		st := page.ActivityStatus(r, today)
		switch st {
		case page.ActivityComplete:
			h.Complete++
		case page.ActivityInProgress:
			h.InProgress++
		case page.ActivityNotStarted:
			h.NotStarted++
		}
		if r.ReferenceDate != nil {
			h.Dated++
			if st != page.ActivityComplete && r.ReferenceDate.Before(today) {
				h.Overdue++
			}
		}
	}
	h.OnTime = max(aggregate.RoundPercentage(h.Complete+h.InProgress-h.Overdue, h.Dated), 0)
	h.Label = HealthLabel(h.OnTime)
	return h
}

// HealthLabel grades an on-time percentage.
func HealthLabel(pct int) string {
	switch {
	case pct >= HealthyPercent:
		return HealthHealthy
	case pct >= AtRiskPercent:
		return HealthAtRisk
	default:
		return HealthCritical
	}
}
