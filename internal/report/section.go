// Package report renders dashboard views to the terminal. Each registered
// section covers one panel of a page and is skipped when the page lacks it.
package report

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fieldworks/sitetrack/internal/state"
	"github.com/fieldworks/sitetrack/internal/view"
)

// ErrNotApplicable indicates a section has nothing to show for the page,
// typically because the view lacks the panel it renders.
var ErrNotApplicable = errors.New("section not applicable")

// Input is what sections analyze.
type Input struct {
	View *view.View

	// History is the status history of the page. Nil when none was recorded.
	History *state.History
}

// Section is a pluggable report section.
type Section interface {
	// Name returns the unique identifier for this section (e.g., "milestones").
	Name() string

	// Description returns a human-readable description of what this section reports.
	Description() string

	// Analyze prepares the section for rendering. It returns
	// ErrNotApplicable (wrapped) when the input has nothing for it.
	Analyze(in *Input) error

	// Render writes the section output to w.
	Render(w io.Writer) error
}

var (
	mu       sync.RWMutex
	registry = make(map[string]func() Section)
	order    []string // insertion order for deterministic listing
)

// Register adds a section constructor to the global registry. Each report
// gets fresh sections, so concurrent renders never share analysis state.
// It panics if a section with the same name is already registered.
func Register(name string, newSection func() Section) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("report section already registered: %s", name))
	}
	registry[name] = newSection
	order = append(order, name)
}

// Get returns a new instance of the named section, or nil if not found.
func Get(name string) Section {
	mu.RLock()
	newSection := registry[name]
	mu.RUnlock()
	if newSection == nil {
		return nil
	}
	return newSection()
}

// List returns the names of all registered sections in registration order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// resetForTesting clears the registry and returns a function restoring it.
// Only for use in tests.
func resetForTesting() (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	savedRegistry, savedOrder := registry, order
	registry = make(map[string]func() Section)
	order = nil
	return func() {
		mu.Lock()
		defer mu.Unlock()
		registry, order = savedRegistry, savedOrder
	}
}
