package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/sitetrack/internal/source"
	"github.com/fieldworks/sitetrack/internal/testable"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	snap := New("deliveries", []source.Row{
		{"id": "1", "po_number": "PO-100", "delivery_date": "2026-03-05"},
		{"id": "2", "po_number": "PO-200", "delivery_date": nil},
	})
	require.NoError(t, Save(root, snap))

	_, err := os.Stat(filepath.Join(root, ".sitetrack", "snapshots", "deliveries.json"))
	require.NoError(t, err)

	got, err := Load(root, "deliveries")
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, got.Version)
	assert.Equal(t, "deliveries", got.Page)
	assert.True(t, snap.FetchedAt.Equal(got.FetchedAt))
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "PO-100", got.Rows[0].Str("po_number"))
	assert.Nil(t, got.Rows[1]["delivery_date"])
}

func TestSave_ReplacesPrevious(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, New("shipments", []source.Row{{"id": "1"}, {"id": "2"}})))
	require.NoError(t, Save(root, New("shipments", []source.Row{{"id": "3"}})))

	got, err := Load(root, "shipments")
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "3", source.RowID(got.Rows[0]))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir(), "schedule")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSnapshot))
	assert.Contains(t, err.Error(), "schedule")
}

func TestLoad_Corrupt(t *testing.T) {
	root := t.TempDir()
	path := SnapshotPath(root, "assets")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(root, "assets")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoSnapshot))
	assert.Contains(t, err.Error(), "decode snapshot assets")
}

func TestSave_RequiresPage(t *testing.T) {
	assert.Error(t, Save(t.TempDir(), &Snapshot{}))
	assert.Error(t, Save(t.TempDir(), nil))
}

func TestSnapshotAge(t *testing.T) {
	s := &Snapshot{FetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	assert.Equal(t, 90*time.Minute, s.Age(time.Date(2026, 3, 1, 13, 30, 0, 0, time.UTC)))
}

func TestLoad_MockReadFileError(t *testing.T) {
	oldFS := FS
	defer func() { FS = oldFS }()

	FS = &testable.MockFileSystem{
		ReadFileFn: func(_ string) ([]byte, error) {
			return nil, fmt.Errorf("I/O error")
		},
	}

	s, err := Load("/fake/root", "deliveries")
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.False(t, errors.Is(err, ErrNoSnapshot))
	assert.Contains(t, err.Error(), "I/O error")
}

func TestSave_MockMkdirAllFailure(t *testing.T) {
	oldFS := FS
	defer func() { FS = oldFS }()

	FS = &testable.MockFileSystem{
		MkdirAllFn: func(_ string, _ os.FileMode) error {
			return fmt.Errorf("permission denied")
		},
	}

	err := Save("/fake/root", New("deliveries", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create state directory")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestSave_MockWriteFileFailure(t *testing.T) {
	oldFS := FS
	defer func() { FS = oldFS }()

	var wrote string
	FS = &testable.MockFileSystem{
		MkdirAllFn: func(_ string, _ os.FileMode) error { return nil },
		WriteFileFn: func(name string, _ []byte, _ os.FileMode) error {
			wrote = name
			return fmt.Errorf("disk full")
		},
	}

	err := Save("/fake/root", New("materials", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write snapshot: disk full")
	assert.Equal(t, filepath.Join("/fake/root", ".sitetrack", "snapshots", "materials.json"), wrote)
}
