// Copyright 2026 The Sitetrack Authors
// SPDX-License-Identifier: MIT

package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/source"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestDecode_Shapes(t *testing.T) {
	rows, err := Decode([]byte(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = Decode([]byte(`{"items":[{"id":"a"}],"total":1}`))
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = Decode([]byte(`{"Piping":[{"TAG_NO":"P-1"}],"Electrical":[{"TAG_NO":"E-1"},{"TAG_NO":"E-2"}],"total_items":3}`))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Electrical", rows[0][GroupColumn])
	assert.Equal(t, "Piping", rows[2][GroupColumn])

	rows, err = Decode([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = Decode([]byte(`[{"id":`))
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assets.json", `[
		{"id":"A-3","zone":"North","status":"installed","eta":"2026-03-10"},
		{"id":"A-1","zone":"South","status":"in_transit","eta":null},
		{"id":"A-2","zone":"North","status":"on_site","eta":"2026-02-01"}
	]`)
	s, err := New(dir)
	require.NoError(t, err)

	rows, err := s.Query(context.Background(), source.Query{
		Table: "assets",
		Eq:    []source.Eq{{Column: "zone", Value: "North"}},
		Order: &source.Order{Column: "id", Ascending: true},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A-2", source.RowID(rows[0]))
	assert.Equal(t, "A-3", source.RowID(rows[1]))
}

func TestQuery_AssignsPositionalIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audit_data.json", `[{"TAG_NO":"X"},{"TAG_NO":"Y"}]`)
	s, err := New(dir)
	require.NoError(t, err)

	rows, err := s.Query(context.Background(), source.Query{Table: "audit_data"})
	require.NoError(t, err)
	assert.Equal(t, "row-1", source.RowID(rows[0]))
	assert.Equal(t, "row-2", source.RowID(rows[1]))
}

func TestQuery_MissingFileIsUnavailable(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, err = s.Query(context.Background(), source.Query{Table: "shipments"})
	assert.True(t, errors.Is(err, source.ErrUnavailable))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "file.json", "[]")
	_, err = New(filepath.Join(dir, "file.json"))
	assert.ErrorContains(t, err, "not a directory")

	_, err = source.Open(context.Background(), DriverName, source.Options{})
	assert.ErrorContains(t, err, "dir is required")
}

func TestSubscribe_EmitsReplaceOnWrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assets.json", `[{"id":"A-1","status":"at_vendor"}]`)
	s, err := New(dir)
	require.NoError(t, err)
	s.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := s.Subscribe(ctx, "assets")
	require.NoError(t, err)

	// Unrelated files are ignored.
	writeFile(t, dir, "other.json", `[]`)
	writeFile(t, dir, "assets.json", `[{"id":"A-1","status":"on_site"},{"id":"A-2","status":"staged_offsite"}]`)

	select {
	case c := <-ch:
		assert.Equal(t, source.Replace, c.Type)
		assert.Equal(t, "assets", c.Table)
		require.Len(t, c.Rows, 2)
		assert.Equal(t, "on_site", c.Rows[0]["status"])
	case <-time.After(5 * time.Second):
		t.Fatal("no change received")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			// A trailing debounced reload may still be queued; the next read must close.
			_, ok = <-ch
		}
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed")
	}
}
