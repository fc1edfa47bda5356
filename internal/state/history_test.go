// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/aggregate"
	"github.com/fieldworks/sitetrack/internal/status"
)

func TestLoadHistory_Missing(t *testing.T) {
	h, err := LoadHistory(t.TempDir(), "deliveries")
	assert.NoError(t, err)
	assert.Nil(t, h)
}

func TestRecord_AppendsAndPersists(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_, err := Record(root, "deliveries", HistoryEntry{Timestamp: now, Total: 4})
	require.NoError(t, err)
	h, err := Record(root, "deliveries", HistoryEntry{Timestamp: now.Add(time.Hour), Total: 5})
	require.NoError(t, err)
	assert.Len(t, h.Entries, 2)

	loaded, err := LoadHistory(root, "deliveries")
	require.NoError(t, err)
	assert.Equal(t, historySchemaVersion, loaded.Version)
	assert.Equal(t, "deliveries", loaded.Page)
	require.Len(t, loaded.Entries, 2)
	assert.Equal(t, 5, loaded.Entries[1].Total)
}

func TestAppendEntry_FIFOCap(t *testing.T) {
	var h *History
	for i := 0; i < maxHistoryEntries+7; i++ {
		h = AppendEntry(h, "schedule", HistoryEntry{Total: i})
	}
	require.Len(t, h.Entries, maxHistoryEntries)
	assert.Equal(t, 7, h.Entries[0].Total)
	assert.Equal(t, maxHistoryEntries+6, h.Entries[maxHistoryEntries-1].Total)
}

func TestBuildHistoryEntry(t *testing.T) {
	stats := aggregate.Statistics{
		Total:    6,
		ByStatus: map[status.Status]int{status.Overdue: 2, status.TBD: 4},
	}
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.FixedZone("CST", -6*3600))
	e := BuildHistoryEntry(stats, now)
	assert.Equal(t, 6, e.Total)
	assert.Equal(t, map[string]int{"overdue": 2, "tbd": 4}, e.StatusCounts)
	assert.Equal(t, time.UTC, e.Timestamp.Location())
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}
