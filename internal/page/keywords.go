package page

import "strings"

// Activity categories derived from activity names.
const (
	CategoryDesign         = "Design/Engineering"
	CategoryProcurement    = "Procurement"
	CategoryFabrication    = "Fabrication"
	CategoryTransportation = "Transportation"
	CategoryInstallation   = "Installation"
	CategoryTesting        = "Testing/Commissioning"
	CategoryStartup        = "Startup"
	CategoryMilestone      = "Milestone"
	CategoryOther          = "Other"
)

type keywordCategory struct {
	name     string
	keywords []string
}

// First match wins, so order matters: "purchase order delivery" is
// procurement, not transportation.
var activityCategories = []keywordCategory{
	{CategoryDesign, []string{"design", "engineering", "drawing", "spec", "calculation", "review"}},
	{CategoryProcurement, []string{"procure", "purchase", "order", "vendor", "supplier", "rfq", "po"}},
	{CategoryFabrication, []string{"fabricat", "manufactur", "build", "construct", "weld", "assembly"}},
	{CategoryTransportation, []string{"transport", "ship", "deliver", "freight", "haul", "truck", "barge"}},
	{CategoryInstallation, []string{"install", "erect", "set", "place", "mount", "connect"}},
	{CategoryTesting, []string{"test", "commission", "inspect", "check", "verify", "calibrat"}},
	{CategoryStartup, []string{"startup", "start-up", "energiz", "first fire", "synchron"}},
}

var milestoneKeywords = []string{
	"milestone", "complete", "approval", "ready", "ifc", "ifr", "issue for",
	"deliver", "ship", "handover", "turnover", "start-up", "first fire",
}

var criticalKeywords = []string{
	"startup", "first fire", "commissioning", "commission", "testing",
	"synchronization", "acceptance", "complete", "delivery", "ship",
	"handover", "final",
}

// Categorize assigns an activity name to a category by keyword.
func Categorize(name string) string {
	n := strings.ToLower(name)
	if strings.TrimSpace(n) == "" {
		return CategoryOther
	}
	for _, c := range activityCategories {
		if containsAny(n, c.keywords) {
			return c.name
		}
	}
	return CategoryOther
}

// IsMilestoneName reports whether an activity name reads like a milestone.
func IsMilestoneName(name string) bool {
	return containsAny(strings.ToLower(name), milestoneKeywords)
}

// HasCriticalKeyword reports whether an activity name mentions a critical
// path event.
func HasCriticalKeyword(name string) bool {
	return containsAny(strings.ToLower(name), criticalKeywords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var categoryColors = map[string]string{
	CategoryDesign:         "#4a90e2",
	CategoryProcurement:    "#f5a623",
	CategoryFabrication:    "#7ed321",
	CategoryTransportation: "#9013fe",
	CategoryInstallation:   "#50e3c2",
	CategoryTesting:        "#bd10e0",
	CategoryStartup:        "#d0021b",
	CategoryMilestone:      "#2563EB",
	CategoryOther:          "#9b9b9b",
}

// palette colors categories that have no assigned color, by first-seen index.
var palette = []string{
	"#4a90e2", "#f5a623", "#7ed321", "#9013fe", "#50e3c2",
	"#bd10e0", "#d0021b", "#2563EB", "#8b572a", "#417505",
}

// CategoryColor returns the chart color for a category. Unknown categories
// take the i-th palette entry.
func CategoryColor(category string, i int) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}

// Tone is a badge color class.
type Tone string

// Badge tones.
const (
	ToneSuccess   Tone = "success"
	ToneInfo      Tone = "info"
	ToneWarning   Tone = "warning"
	ToneDanger    Tone = "danger"
	ToneSecondary Tone = "secondary"
)

// Badge is a rendered status pill.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

var exactTones = map[string]Tone{
	"complete":    ToneSuccess,
	"in progress": ToneWarning,
	"not started": ToneSecondary,
	"overdue":     ToneDanger,
	"on site":     ToneSuccess,
	"in transit":  ToneWarning,
	"stale":       ToneDanger,
	"no data":     ToneSecondary,
}

// BadgeFor picks a tone for a raw backend status.
func BadgeFor(statusRaw string) Badge {
	label := strings.TrimSpace(statusRaw)
	if label == "" {
		return Badge{Label: "Unknown", Tone: ToneSecondary}
	}
	s := strings.ToLower(label)
	if t, ok := exactTones[s]; ok {
		return Badge{Label: label, Tone: t}
	}
	switch {
	case containsAny(s, []string{"delivered", "finished", "installed", "received"}):
		return Badge{Label: label, Tone: ToneSuccess}
	case containsAny(s, []string{"transit", "rts", "shipped"}):
		return Badge{Label: label, Tone: ToneInfo}
	case strings.Contains(s, "cancel"):
		return Badge{Label: label, Tone: ToneDanger}
	case strings.Contains(s, "not"):
		return Badge{Label: label, Tone: ToneWarning}
	default:
		return Badge{Label: label, Tone: ToneSecondary}
	}
}
