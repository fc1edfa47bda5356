// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package output defines the Formatter interface for writing dashboard views
// in various formats.
package output

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/fieldworks/sitetrack/internal/view"
)

// Formatter writes a dashboard view to the given writer in a specific format.
type Formatter interface {
	// Name returns the format name (e.g., "json", "markdown").
	Name() string

	// Format writes v to w.
	Format(v *view.View, w io.Writer) error
}

// ContentTyper is implemented by formatters that know their MIME type.
type ContentTyper interface {
	ContentType() string
}

var (
	fmtMu       sync.RWMutex
	fmtRegistry = make(map[string]Formatter)
)

// RegisterFormatter adds a formatter to the global registry.
func RegisterFormatter(f Formatter) {
	fmtMu.Lock()
	defer fmtMu.Unlock()
	fmtRegistry[f.Name()] = f
}

// GetFormatter returns the formatter with the given name, or an error if not found.
func GetFormatter(name string) (Formatter, error) {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	f, ok := fmtRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown format: %q (available: %s)", name, strings.Join(namesLocked(), ", "))
	}
	return f, nil
}

// Names returns the registered format names, sorted.
func Names() []string {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(fmtRegistry))
	for name := range fmtRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ContentType returns the MIME type for f, falling back to plain text.
func ContentType(f Formatter) string {
	if ct, ok := f.(ContentTyper); ok {
		return ct.ContentType()
	}
	return "text/plain; charset=utf-8"
}

// resetFmtForTesting clears the formatter registry and returns a function
// restoring it. Only for use in tests.
func resetFmtForTesting() (restore func()) {
	fmtMu.Lock()
	defer fmtMu.Unlock()
	saved := fmtRegistry
	fmtRegistry = make(map[string]Formatter)
	return func() {
		fmtMu.Lock()
		defer fmtMu.Unlock()
		fmtRegistry = saved
	}
}
