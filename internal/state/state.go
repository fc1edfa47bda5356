// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package state persists the last known rows of each page.
//
// When a source is unreachable, sitetrack falls back to the snapshot written
// by the last successful load and marks the page stale. Snapshots are
// replaced wholesale on every successful load.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/testable"
)

// ErrNoSnapshot is returned by Load when no snapshot exists for a page.
var ErrNoSnapshot = errors.New("no snapshot")

// stateDir is the directory name within the working directory where state is stored.
const stateDir = ".sitetrack"

// snapshotDir holds one file per page.
const snapshotDir = "snapshots"

// schemaVersion is the current snapshot schema version.
const schemaVersion = "1"

// FS is the file system implementation used by this package.
// Override in tests with a testable.MockFileSystem.
var FS testable.FileSystem = testable.DefaultFS

// Snapshot is the last successfully loaded table of a page.
type Snapshot struct {
	Version   string       `json:"version"`
	Page      string       `json:"page"`
	FetchedAt time.Time    `json:"fetched_at"`
	Rows      []source.Row `json:"rows"`
}

// New builds a snapshot stamped with the current time.
func New(page string, rows []source.Row) *Snapshot {
	return &Snapshot{
		Version:   schemaVersion,
		Page:      page,
		FetchedAt: time.Now().UTC(),
		Rows:      rows,
	}
}

// Age returns how long ago the snapshot was taken.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// Load reads <root>/.sitetrack/snapshots/<page>.json. A missing file is
// reported as ErrNoSnapshot.
func Load(root, page string) (*Snapshot, error) {
	data, err := FS.ReadFile(SnapshotPath(root, page))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w for page %s", ErrNoSnapshot, page)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", page, err)
	}
	return &s, nil
}

// Save writes s to <root>/.sitetrack/snapshots/<page>.json, creating the
// directory if needed.
func Save(root string, s *Snapshot) error {
	if s == nil || s.Page == "" {
		return errors.New("save snapshot: page is required")
	}
	dir := filepath.Join(root, stateDir, snapshotDir)
	if err := FS.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if s.Version == "" {
		s.Version = schemaVersion
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := FS.WriteFile(SnapshotPath(root, s.Page), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// SnapshotPath returns the snapshot file of a page.
func SnapshotPath(root, page string) string {
	return filepath.Join(root, stateDir, snapshotDir, page+".json")
}

// Dir returns the state directory under root.
func Dir(root string) string {
	return filepath.Join(root, stateDir)
}
