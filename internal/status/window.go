package status

import (
	"fmt"
	"strings"

	"github.com/fieldworks/sitetrack/internal/record"
)

// Window is a named timeframe used by explicit timeframe filters.
type Window string

// Windows. WindowAll (and the empty Window) apply no restriction.
const (
	WindowAll      Window = "all"
	WindowReady    Window = "ready"
	WindowWeek     Window = "week"
	WindowMonth    Window = "month"
	WindowUpcoming Window = "upcoming"
)

// Windows lists the restricting windows in display order.
var Windows = []Window{WindowReady, WindowWeek, WindowMonth, WindowUpcoming}

// ParseWindow resolves a window name. Unknown names are an error.
func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case "", WindowAll:
		return WindowAll, nil
	case WindowReady, WindowWeek, WindowMonth, WindowUpcoming:
		return w, nil
	case "overdue":
		return WindowReady, nil
	default:
		return "", fmt.Errorf("unknown window %q", s)
	}
}

// IsAll reports whether w applies no restriction.
func (w Window) IsAll() bool {
	return w == "" || w == WindowAll
}

// Contains reports whether ref falls inside w. An absent date is never inside
// a restricting window.
//
//	ready     ref < today
//	week      today <= ref <= today+7
//	month     today <= ref <= today+30
//	upcoming  ref > today+30
func (w Window) Contains(ref *record.Date, today record.Date) bool {
	if w.IsAll() {
		return true
	}
	if ref == nil {
		return false
	}
	switch w {
	case WindowReady:
		return ref.Before(today)
	case WindowWeek:
		return !ref.Before(today) && !ref.After(today.AddDays(WeekDays))
	case WindowMonth:
		return !ref.Before(today) && !ref.After(today.AddDays(MonthDays))
	case WindowUpcoming:
		return ref.After(today.AddDays(MonthDays))
	default:
		return false
	}
}

// Label returns a human label for w.
func (w Window) Label() string {
	switch w {
	case WindowReady:
		return "Ready Now"
	case WindowWeek:
		return "Next 7 Days"
	case WindowMonth:
		return "Next 30 Days"
	case WindowUpcoming:
		return "Beyond 30 Days"
	default:
		return "All Dates"
	}
}
