// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/fieldworks/sitetrack/internal/aggregate"
)

// historyDir holds one history file per page.
const historyDir = "history"

// historySchemaVersion is the current history file schema version.
const historySchemaVersion = "1"

// maxHistoryEntries is the FIFO cap for history entries.
const maxHistoryEntries = 100

// HistoryEntry captures the status counts of a page at one point in time.
type HistoryEntry struct {
	Timestamp    time.Time      `json:"timestamp"`
	Total        int            `json:"total"`
	StatusCounts map[string]int `json:"status_counts"`
}

// History stores a time series of entries for one page.
type History struct {
	Version string         `json:"version"`
	Page    string         `json:"page"`
	Entries []HistoryEntry `json:"entries"`
}

// LoadHistory reads <root>/.sitetrack/history/<page>.json.
// If the file does not exist, it returns (nil, nil).
func LoadHistory(root, page string) (*History, error) {
	data, err := FS.ReadFile(historyPath(root, page))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// SaveHistory writes h to <root>/.sitetrack/history/<page>.json.
func SaveHistory(root string, h *History) error {
	dir := filepath.Join(root, stateDir, historyDir)
	if err := FS.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}

	if err := FS.WriteFile(historyPath(root, h.Page), data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

// AppendEntry adds an entry to the history and enforces the FIFO cap.
func AppendEntry(h *History, page string, entry HistoryEntry) *History {
	if h == nil {
		h = &History{Page: page}
	}
	h.Version = historySchemaVersion
	h.Page = page
	h.Entries = append(h.Entries, entry)
	if len(h.Entries) > maxHistoryEntries {
		h.Entries = h.Entries[len(h.Entries)-maxHistoryEntries:]
	}
	return h
}

// BuildHistoryEntry creates an entry from page statistics.
func BuildHistoryEntry(stats aggregate.Statistics, now time.Time) HistoryEntry {
	counts := make(map[string]int, len(stats.ByStatus))
	for s, n := range stats.ByStatus {
		counts[string(s)] = n
	}
	return HistoryEntry{
		Timestamp:    now.UTC(),
		Total:        stats.Total,
		StatusCounts: counts,
	}
}

// Record appends an entry for page and saves the history.
func Record(root, page string, entry HistoryEntry) (*History, error) {
	h, err := LoadHistory(root, page)
	if err != nil {
		return nil, err
	}
	h = AppendEntry(h, page, entry)
	if err := SaveHistory(root, h); err != nil {
		return nil, err
	}
	return h, nil
}

func historyPath(root, page string) string {
	return filepath.Join(root, stateDir, historyDir, page+".json")
}

// SortedKeys returns the sorted keys from a map[string]int.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
