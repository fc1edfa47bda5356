package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fieldworks/sitetrack/internal/view"
)

// timelineScale is the number of days per character in the text Gantt.
const timelineScale = 2

func scheduleOf(in *Input, section string) (*view.Schedule, error) {
	if in.View.Schedule == nil {
		return nil, fmt.Errorf("%s: page has no schedule: %w", section, ErrNotApplicable)
	}
	return in.View.Schedule, nil
}

// milestonesSection lists upcoming milestones and key activities.
type milestonesSection struct {
	sched *view.Schedule
}

func (s *milestonesSection) Name() string { return "milestones" }
func (s *milestonesSection) Description() string {
	return "Upcoming milestones and key activities"
}

func (s *milestonesSection) Analyze(in *Input) error {
	sched, err := scheduleOf(in, "milestones")
	if err != nil {
		return err
	}
	if len(sched.UpcomingMilestones) == 0 && len(sched.KeyActivities) == 0 {
		return fmt.Errorf("milestones: nothing upcoming: %w", ErrNotApplicable)
	}
	s.sched = sched
	return nil
}

func (s *milestonesSection) Render(w io.Writer) error {
	if len(s.sched.UpcomingMilestones) > 0 {
		heading(w, "Upcoming Milestones")
		if err := activityTable(w, s.sched.UpcomingMilestones); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w)
	}
	if len(s.sched.KeyActivities) > 0 {
		heading(w, fmt.Sprintf("Key Activities (next %d days)", view.KeyActivityHorizon))
		if err := activityTable(w, s.sched.KeyActivities); err != nil {
			return err
		}
		if n := s.sched.KeyActivityCount - len(s.sched.KeyActivities); n > 0 {
			_, _ = fmt.Fprintf(w, "  ... and %d more\n", n)
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

func activityTable(w io.Writer, acts []view.Activity) error {
	tbl := NewTable(
		Column{Header: "Finish"},
		Column{Header: "When"},
		Column{Header: "Activity", MaxWidth: 48},
		Column{Header: "Category", MaxWidth: 24},
		Column{Header: "Status"},
	)
	for _, a := range acts {
		name := a.Name
		if a.Critical {
			name = "! " + name
		}
		tbl.AddRow(a.Finish.String(), a.Urgency, name, a.Category, a.Badge.Label)
	}
	return tbl.Render(w)
}

// healthSection reports schedule health.
type healthSection struct {
	health view.Health
}

func (s *healthSection) Name() string        { return "health" }
func (s *healthSection) Description() string { return "Schedule health and on-time rate" }

func (s *healthSection) Analyze(in *Input) error {
	sched, err := scheduleOf(in, "health")
	if err != nil {
		return err
	}
	s.health = sched.Health
	return nil
}

func (s *healthSection) Render(w io.Writer) error {
	h := s.health
	heading(w, "Schedule Health")
	_, _ = fmt.Fprintf(w, "  On time:     %s (%s)\n", percent(h.OnTime), ColorHealth(h.Label))
	_, _ = fmt.Fprintf(w, "  Complete:    %d\n", h.Complete)
	_, _ = fmt.Fprintf(w, "  In progress: %d\n", h.InProgress)
	_, _ = fmt.Fprintf(w, "  Not started: %d\n", h.NotStarted)
	_, _ = fmt.Fprintf(w, "  Overdue:     %s\n", colorCount(h.Overdue))
	_, _ = fmt.Fprintf(w, "  Dated:       %d\n\n", h.Dated)
	return nil
}

// timelineSection draws the schedule window as a text Gantt chart.
type timelineSection struct {
	tl view.Timeline
}

func (s *timelineSection) Name() string        { return "timeline" }
func (s *timelineSection) Description() string { return "Activity timeline around today" }

func (s *timelineSection) Analyze(in *Input) error {
	sched, err := scheduleOf(in, "timeline")
	if err != nil {
		return err
	}
	if len(sched.Timeline.Bars) == 0 {
		return fmt.Errorf("timeline: no activities in window: %w", ErrNotApplicable)
	}
	s.tl = sched.Timeline
	return nil
}

func (s *timelineSection) Render(w io.Writer) error {
	heading(w, fmt.Sprintf("Timeline %s to %s", s.tl.Start, s.tl.End))
	tbl := NewTable(
		Column{Header: "Activity", MaxWidth: 32},
		Column{Header: "Finish"},
		Column{Header: ganttRuler(s.tl)},
	)
	for _, b := range s.tl.Bars {
		tbl.AddRow(b.Name, b.Finish.String(), ganttBar(s.tl, b))
	}
	if err := tbl.Render(w); err != nil {
		return err
	}
	if n := s.tl.Total - len(s.tl.Bars); n > 0 {
		_, _ = fmt.Fprintf(w, "  ... and %d more\n", n)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}

func ganttWidth(tl view.Timeline) int {
	return (tl.Days + timelineScale - 1) / timelineScale
}

// ganttRuler marks today with "v" above the bar area.
func ganttRuler(tl view.Timeline) string {
	cells := []rune(strings.Repeat(" ", ganttWidth(tl)))
	if i := tl.TodayOffset / timelineScale; i >= 0 && i < len(cells) {
		cells[i] = 'v'
	}
	return strings.TrimRight(string(cells), " ")
}

// ganttBar renders one activity: "#" for in progress, "=" otherwise and
// "*" for milestones. Today shows as "|" where the bar leaves a gap.
func ganttBar(tl view.Timeline, b view.Bar) string {
	cells := []rune(strings.Repeat(".", ganttWidth(tl)))
	if i := tl.TodayOffset / timelineScale; i >= 0 && i < len(cells) {
		cells[i] = '|'
	}
	fill := '='
	switch {
	case b.Milestone:
		fill = '*'
	case b.InProgress:
		fill = '#'
	}
	from := b.Offset / timelineScale
	to := (b.Offset + b.Span - 1) / timelineScale
	for i := from; i <= to && i < len(cells); i++ {
		if i >= 0 {
			cells[i] = fill
		}
	}
	return string(cells)
}
