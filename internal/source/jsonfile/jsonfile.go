// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

// Package jsonfile serves tables from static JSON files, one file per table,
// and watches them for edits.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fieldworks/sitetrack/internal/source"
)

// DriverName is the registry name for this source.
const DriverName = "json"

// GroupColumn holds the object key for files shaped as {"group": [rows...]}.
const GroupColumn = "_group"

const defaultDebounce = 250 * time.Millisecond

func init() {
	source.Register(DriverName, func(_ context.Context, opts source.Options) (source.Source, error) {
		if opts.Dir == "" {
			return nil, errors.New("json source: dir is required")
		}
		return New(opts.Dir)
	})
}

// Source reads {dir}/{table}.json.
type Source struct {
	dir      string
	debounce time.Duration
}

var (
	_ source.Source     = (*Source)(nil)
	_ source.Subscriber = (*Source)(nil)
)

// New returns a source rooted at dir. The directory must exist.
func New(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("json source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("json source: %s is not a directory", dir)
	}
	return &Source{dir: dir, debounce: defaultDebounce}, nil
}

// Name implements source.Source.
func (s *Source) Name() string { return DriverName }

// Path returns the file backing table.
func (s *Source) Path(table string) string {
	return filepath.Join(s.dir, table+".json")
}

// Query implements source.Source.
func (s *Source) Query(_ context.Context, q source.Query) ([]source.Row, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rows, err := s.load(q.Table)
	if err != nil {
		return nil, err
	}
	return source.ApplyQuery(rows, q), nil
}

func (s *Source) load(table string) ([]source.Row, error) {
	data, err := os.ReadFile(s.Path(table))
	if err != nil {
		return nil, source.Unavailable(DriverName, table, err)
	}
	rows, err := Decode(data)
	if err != nil {
		return nil, source.Unavailable(DriverName, table, err)
	}
	assignIDs(rows)
	return rows, nil
}

// Decode accepts three file shapes: a top-level array of rows, an object
// with an "items" array, or an object of arrays keyed by group name (the
// key is stored in GroupColumn).
func Decode(data []byte) ([]source.Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var rows []source.Row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return rows, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	if items, ok := obj["items"]; ok {
		var rows []source.Row
		if err := json.Unmarshal(items, &rows); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		return rows, nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var rows []source.Row
	for _, k := range keys {
		var group []source.Row
		if err := json.Unmarshal(obj[k], &group); err != nil {
			// Non-array members (totals, metadata) are not rows.
			continue
		}
		for _, r := range group {
			r[GroupColumn] = k
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// assignIDs gives rows without an "id" a positional one so patches and
// table rows stay addressable.
func assignIDs(rows []source.Row) {
	for i, r := range rows {
		if source.RowID(r) == "" {
			r["id"] = fmt.Sprintf("row-%d", i+1)
		}
	}
}

// Subscribe implements source.Subscriber. Every settled write to the
// table's file produces one Replace change carrying the full table.
func (s *Source) Subscribe(ctx context.Context, table string) (<-chan source.Change, error) {
	if err := (source.Query{Table: table}).Validate(); err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, source.Unavailable(DriverName, table, err)
	}
	// Watch the directory so editors that replace the file are still seen.
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return nil, source.Unavailable(DriverName, table, err)
	}

	ch := make(chan source.Change, 1)
	go s.watch(ctx, w, table, ch)
	return ch, nil
}

func (s *Source) watch(ctx context.Context, w *fsnotify.Watcher, table string, ch chan<- source.Change) {
	defer close(ch)
	defer func() { _ = w.Close() }()

	target := filepath.Clean(s.Path(table))
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(s.debounce)
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("json watch error", "table", table, "error", err)
		case <-fire:
			fire = nil
			rows, err := s.load(table)
			if err != nil {
				slog.Warn("json reload failed", "table", table, "error", err)
				continue
			}
			select {
			case ch <- source.Change{Type: source.Replace, Table: table, Rows: rows}:
			case <-ctx.Done():
				return
			}
		}
	}
}
