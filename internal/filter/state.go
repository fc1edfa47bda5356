package filter

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/fieldworks/sitetrack/internal/status"
)

// Query-string keys understood by ParseState.
const (
	KeySearch = "q"
	KeyStatus = "status"
	KeyWindow = "window"

	// excludePrefix negates a categorical key: "!name=Unknown".
	excludePrefix = "!"
)

// Match is a categorical equality predicate on a named record field.
// An empty Value matches everything.
type Match struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Exclude bool   `json:"exclude,omitempty"`
}

// State is the conjunction of user-chosen predicates for one page.
// The zero State matches everything.
type State struct {
	Search     string        `json:"search,omitempty"`
	Categories []Match       `json:"categories,omitempty"`
	Status     string        `json:"status,omitempty"`
	Window     status.Window `json:"window,omitempty"`
}

// IsEmpty reports whether st has no active predicate.
func (st State) IsEmpty() bool {
	if strings.TrimSpace(st.Search) != "" || strings.TrimSpace(st.Status) != "" {
		return false
	}
	if !st.Window.IsAll() {
		return false
	}
	for _, m := range st.Categories {
		if m.Value != "" {
			return false
		}
	}
	return true
}

// WithSearch returns a copy of st with the search term replaced.
func (st State) WithSearch(term string) State {
	st.Search = term
	return st
}

// WithStatus returns a copy of st with the derived-status filter replaced.
func (st State) WithStatus(s string) State {
	st.Status = s
	return st
}

// WithWindow returns a copy of st with the window replaced.
func (st State) WithWindow(w status.Window) State {
	st.Window = w
	return st
}

// WithMatch returns a copy of st where the predicate for m.Field (and the
// same polarity) is replaced by m. An empty value clears it.
func (st State) WithMatch(m Match) State {
	out := make([]Match, 0, len(st.Categories)+1)
	for _, c := range st.Categories {
		if c.Field == m.Field && c.Exclude == m.Exclude {
			continue
		}
		out = append(out, c)
	}
	if m.Value != "" {
		out = append(out, m)
	}
	st.Categories = out
	return st
}

// Value returns the current value of the inclusive match on field.
func (st State) Value(field string) string {
	for _, m := range st.Categories {
		if m.Field == field && !m.Exclude {
			return m.Value
		}
	}
	return ""
}

// ParseState reads a State from query values. Only keys in fields become
// categorical predicates; "!field" keys become exclusions.
func ParseState(v url.Values, fields []string) (State, error) {
	st := State{
		Search: v.Get(KeySearch),
		Status: v.Get(KeyStatus),
	}
	if st.Status != "" {
		if _, err := status.ParseStatus(st.Status); err != nil {
			return State{}, err
		}
	}

	w, err := status.ParseWindow(v.Get(KeyWindow))
	if err != nil {
		return State{}, err
	}
	st.Window = w

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		field, exclude := strings.CutPrefix(k, excludePrefix)
		if !slices.Contains(fields, field) {
			continue
		}
		st = st.WithMatch(Match{Field: field, Value: v.Get(k), Exclude: exclude})
	}
	return st, nil
}

// Encode writes st back to query values. ParseState(st.Encode()) == st for
// states built from the same field list.
func (st State) Encode() url.Values {
	v := url.Values{}
	if st.Search != "" {
		v.Set(KeySearch, st.Search)
	}
	if st.Status != "" {
		v.Set(KeyStatus, st.Status)
	}
	if !st.Window.IsAll() {
		v.Set(KeyWindow, string(st.Window))
	}
	for _, m := range st.Categories {
		k := m.Field
		if m.Exclude {
			k = excludePrefix + k
		}
		v.Set(k, m.Value)
	}
	return v
}

// String renders st for logs.
func (st State) String() string {
	if st.IsEmpty() {
		return "(none)"
	}
	var parts []string
	if st.Search != "" {
		parts = append(parts, fmt.Sprintf("search=%q", st.Search))
	}
	for _, m := range st.Categories {
		op := "="
		if m.Exclude {
			op = "!="
		}
		parts = append(parts, m.Field+op+m.Value)
	}
	if st.Status != "" {
		parts = append(parts, "status="+st.Status)
	}
	if !st.Window.IsAll() {
		parts = append(parts, "window="+string(st.Window))
	}
	return strings.Join(parts, " ")
}
