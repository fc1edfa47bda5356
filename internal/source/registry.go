// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Options configures a driver. Each driver reads the fields it needs.
type Options struct {
	URL     string        // postgrest base URL
	Key     string        // postgrest anon key
	DSN     string        // postgres connection string
	Path    string        // sqlite database file
	Dir     string        // json data directory
	Rate    float64       // requests per second, 0 = unlimited
	Timeout time.Duration // per-request timeout
}

// Opener builds a Source from options.
type Opener func(ctx context.Context, opts Options) (Source, error)

var (
	mu      sync.RWMutex
	drivers = make(map[string]Opener)
)

// Register makes a driver available by name.
// It panics if a driver with the same name is already registered.
func Register(name string, open Opener) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := drivers[name]; exists {
		panic(fmt.Sprintf("source driver already registered: %s", name))
	}
	drivers[name] = open
}

// Open builds a source with the named driver.
func Open(ctx context.Context, driver string, opts Options) (Source, error) {
	mu.RLock()
	open, ok := drivers[driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown source driver: %q (available: %s)", driver, strings.Join(Drivers(), ", "))
	}
	return open(ctx, opts)
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// resetForTesting clears the driver registry. Only for use in tests.
func resetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	drivers = make(map[string]Opener)
}
