package aggregate

import (
	"encoding/json"

	"github.com/fieldworks/sitetrack/internal/record"
	"github.com/fieldworks/sitetrack/internal/status"
)

// Group is one key of a grouped count.
type Group struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Groups is an ordered count map. Keys iterate in first-seen order.
type Groups struct {
	keys   []string
	counts map[string]int
}

func (g *Groups) add(key string, n int) {
	if g.counts == nil {
		g.counts = make(map[string]int)
	}
	if _, ok := g.counts[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.counts[key] += n
}

// Keys returns the keys in first-seen order.
func (g Groups) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// Count returns the count for key, 0 when absent.
func (g Groups) Count(key string) int { return g.counts[key] }

// Len returns the number of distinct keys.
func (g Groups) Len() int { return len(g.keys) }

// Total returns the sum of all counts.
func (g Groups) Total() int {
	n := 0
	for _, c := range g.counts {
		n += c
	}
	return n
}

// Slice returns the groups in first-seen order.
func (g Groups) Slice() []Group {
	out := make([]Group, 0, len(g.keys))
	for _, k := range g.keys {
		out = append(out, Group{Key: k, Count: g.counts[k]})
	}
	return out
}

// MarshalJSON encodes Groups as an ordered array so consumers keep the order.
func (g Groups) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Slice())
}

// UnmarshalJSON decodes the array form written by MarshalJSON.
func (g *Groups) UnmarshalJSON(b []byte) error {
	var in []Group
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*g = Groups{}
	for _, e := range in {
		g.add(e.Key, e.Count)
	}
	return nil
}

// GroupBy counts records per distinct value of field. Empty values are counted
// under fallback, or skipped when fallback is empty.
func GroupBy(records []record.Record, field, fallback string) Groups {
	var g Groups
	for _, r := range records {
		v := r.Field(field)
		if v == "" {
			if fallback == "" {
				continue
			}
			v = fallback
		}
		g.add(v, 1)
	}
	return g
}

// GroupByStatus counts records per derived status. Keys follow status.All
// order and include empty buckets, so charts keep a stable legend.
func GroupByStatus(records []record.Record, today record.Date) Groups {
	var g Groups
	for _, st := range status.All {
		g.add(string(st), 0)
	}
	for _, r := range records {
		g.add(string(status.Classify(r.ReferenceDate, today)), 1)
	}
	return g
}
