// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package pipeline

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"

	"github.com/fieldworks/sitetrack/internal/source"
)

// RowHash computes a content hash for a row: every column name and value in
// sorted column order, SHA-256 truncated to 8 hex characters.
func RowHash(r source.Row) string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	h := sha256.New()
	for _, c := range cols {
		// Null-byte separators avoid collisions from concatenation.
		_, _ = fmt.Fprintf(h, "%s\x00%s\x00", c, source.String(r[c]))
	}
	sum := h.Sum(nil)
	return fmt.Sprintf("%x", sum[:4])
}

// EnsureIDs gives rows without an "id" column a content-derived one, so the
// same row keeps its id across reloads regardless of position. Repeats of
// identical content are numbered in order of appearance ("h-<hash>-2", ...)
// and stay distinct rows.
func EnsureIDs(rows []source.Row) []source.Row {
	var seen map[string]int
	for _, r := range rows {
		if source.RowID(r) != "" {
			continue
		}
		id := "h-" + RowHash(r)
		if seen == nil {
			seen = make(map[string]int)
		}
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s-%d", id, n)
		}
		r["id"] = id
	}
	return rows
}

// DeduplicateRows removes rows whose id was already seen. The first
// occurrence is kept. Only source ids can repeat after EnsureIDs.
func DeduplicateRows(rows []source.Row) []source.Row {
	if len(rows) == 0 {
		return rows
	}

	seen := make(map[string]struct{}, len(rows))
	result := make([]source.Row, 0, len(rows))
	for _, r := range rows {
		id := source.RowID(r)
		if _, exists := seen[id]; exists {
			slog.Debug("dropping duplicate row", "id", id)
			continue
		}
		seen[id] = struct{}{}
		result = append(result, r)
	}
	return result
}
