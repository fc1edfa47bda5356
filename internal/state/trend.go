package state

import "math"

// DefaultWindowSize is the default number of entries to compare for trends.
const DefaultWindowSize = 5

// deadbandPct is the percentage change threshold below which a trend is "stable".
const deadbandPct = 0.10

// Direction describes whether a metric is improving, stable, or degrading.
type Direction string

const (
	Improving Direction = "improving"
	Stable    Direction = "stable"
	Degrading Direction = "degrading"
)

// TrendLine captures the directional change for a single metric.
type TrendLine struct {
	Current   int       `json:"current"`
	Previous  int       `json:"previous"`
	Delta     int       `json:"delta"`
	Direction Direction `json:"direction"`
}

// TrendResult holds computed trends across all status buckets.
type TrendResult struct {
	TotalTrend   TrendLine            `json:"total_trend"`
	StatusTrends map[string]TrendLine `json:"status_trends"`
	WindowSize   int                  `json:"window_size"`
	DataPoints   int                  `json:"data_points"`
}

// ComputeTrends compares the oldest and newest entries within the window.
// Returns nil if fewer than 2 data points are available.
func ComputeTrends(h *History, windowSize int) *TrendResult {
	if h == nil || len(h.Entries) < 2 {
		return nil
	}
	if windowSize < 2 {
		windowSize = DefaultWindowSize
	}

	entries := h.Entries
	if len(entries) > windowSize {
		entries = entries[len(entries)-windowSize:]
	}

	oldest := entries[0]
	newest := entries[len(entries)-1]

	result := &TrendResult{
		TotalTrend:   computeTrendLine(oldest.Total, newest.Total),
		StatusTrends: make(map[string]TrendLine),
		WindowSize:   windowSize,
		DataPoints:   len(entries),
	}
	for _, k := range mergeKeys(oldest.StatusCounts, newest.StatusCounts) {
		result.StatusTrends[k] = computeTrendLine(oldest.StatusCounts[k], newest.StatusCounts[k])
	}
	return result
}

// computeTrendLine determines direction from old to new using a 10% deadband.
func computeTrendLine(oldVal, newVal int) TrendLine {
	return TrendLine{
		Current:   newVal,
		Previous:  oldVal,
		Delta:     newVal - oldVal,
		Direction: classifyDirection(oldVal, newVal),
	}
}

// classifyDirection applies the deadband threshold. Fewer records in a
// bucket counts as improving.
func classifyDirection(oldVal, newVal int) Direction {
	if oldVal == 0 && newVal == 0 {
		return Stable
	}

	base := oldVal
	if base == 0 {
		base = newVal
	}

	pctChange := math.Abs(float64(newVal-oldVal)) / float64(base)
	if pctChange <= deadbandPct {
		return Stable
	}
	if newVal < oldVal {
		return Improving
	}
	return Degrading
}

// mergeKeys returns the sorted union of keys from two maps.
func mergeKeys(a, b map[string]int) []string {
	seen := make(map[string]int, len(a)+len(b))
	for k := range a {
		seen[k] = 0
	}
	for k := range b {
		seen[k] = 0
	}
	return SortedKeys(seen)
}
