// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fieldworks/sitetrack/internal/status"
	"github.com/fieldworks/sitetrack/internal/view"
)

func init() {
	Register("summary", func() Section { return &summarySection{} })
	Register("breakdown", func() Section { return &breakdownSection{} })
	Register("records", func() Section { return &recordsSection{} })
	Register("milestones", func() Section { return &milestonesSection{} })
	Register("health", func() Section { return &healthSection{} })
	Register("timeline", func() Section { return &timelineSection{} })
	Register("calendar", func() Section { return &calendarSection{} })
	Register("trackers", func() Section { return &trackersSection{} })
	Register("zones", func() Section { return &zonesSection{} })
	Register("procurement", func() Section { return &procurementSection{} })
	Register("trend", func() Section { return &trendSection{} })
}

// Render writes the terminal report of in.View with the named sections.
// Empty names means every registered section. Sections that do not apply
// to the page are skipped silently.
func Render(w io.Writer, in *Input, names []string) error {
	if in == nil || in.View == nil {
		return errors.New("render report: no view")
	}
	names, err := ResolveSections(names)
	if err != nil {
		return err
	}

	renderHeader(w, in.View)
	for _, name := range names {
		sec := Get(name)
		if err := sec.Analyze(in); err != nil {
			if errors.Is(err, ErrNotApplicable) {
				continue
			}
			return fmt.Errorf("section %s: %w", name, err)
		}
		if err := sec.Render(w); err != nil {
			return fmt.Errorf("section %s render: %w", name, err)
		}
	}
	return nil
}

func renderHeader(w io.Writer, v *view.View) {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle(v.Title))
	_, _ = fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", len(v.Title)))
	_, _ = fmt.Fprintf(w, "Today:   %s\n", v.Today.Format("Mon Jan 2, 2006"))
	if !v.FetchedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "Fetched: %s\n", v.FetchedAt.Format(time.RFC3339))
	}
	if v.Query != "" {
		_, _ = fmt.Fprintf(w, "Filter:  %s\n", v.Query)
	}
	if v.Error != "" {
		msg := "Source error: " + v.Error
		if v.Stale {
			msg += " (showing last snapshot)"
		}
		_, _ = fmt.Fprintf(w, "%s\n", colorRed.Sprint(msg))
	}
	_, _ = fmt.Fprintln(w)
}

// ResolveSections validates section names. Empty input means every
// registered section.
func ResolveSections(names []string) ([]string, error) {
	all := List()
	if len(names) == 0 {
		return all, nil
	}
	available := make(map[string]bool, len(all))
	for _, name := range all {
		available[name] = true
	}
	var out []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !available[name] {
			return nil, fmt.Errorf("unknown section: %q (available: %s)", name, strings.Join(all, ", "))
		}
		out = append(out, name)
	}
	return out, nil
}

// framing recovers the status vocabulary of a rendered view.
func framing(v *view.View) status.Framing {
	if v.Framing == status.ShipmentFraming.String() {
		return status.ShipmentFraming
	}
	return status.ScheduleFraming
}

// heading writes a bold title with an underline of matching width.
func heading(w io.Writer, title string) {
	_, _ = fmt.Fprintf(w, "%s\n", SectionTitle(title))
	_, _ = fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(title)))
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}

func percent(n int) string {
	return fmt.Sprintf("%d%%", n)
}

// formatDelta formats a delta with a +/- prefix.
func formatDelta(d int) string {
	if d > 0 {
		return fmt.Sprintf("+%d", d)
	}
	return fmt.Sprintf("%d", d)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
