package testable

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOsFileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	fs := DefaultFS

	require.NoError(t, fs.MkdirAll(dir, 0o750))
	path := filepath.Join(dir, "f.json")
	require.NoError(t, fs.WriteFile(path, []byte("[]"), 0o600))

	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	info, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.Size())

	require.NoError(t, fs.Remove(path))
	_, err = fs.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestMockFileSystem_OverridesAndFallsThrough(t *testing.T) {
	boom := errors.New("boom")
	m := &MockFileSystem{
		WriteFileFn: func(string, []byte, os.FileMode) error { return boom },
	}
	dir := t.TempDir()
	assert.ErrorIs(t, m.WriteFile(filepath.Join(dir, "x"), nil, 0o600), boom)
	assert.NoError(t, m.MkdirAll(filepath.Join(dir, "y"), 0o750))

	_, err := m.ReadFile(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
