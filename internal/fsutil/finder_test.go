package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.hcl"))
	writeFile(t, filepath.Join(dir, "nested", "a.hcl"))
	writeFile(t, filepath.Join(dir, "notes.txt"))
	single := filepath.Join(t.TempDir(), "single.conf")
	writeFile(t, single)

	files, err := ExpandPaths([]string{dir, single, filepath.Join(dir, "b.hcl")}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "b.hcl"),
		filepath.Join(dir, "nested", "a.hcl"),
		single,
	}, files)
}

func TestExpandPaths_Missing(t *testing.T) {
	_, err := ExpandPaths([]string{filepath.Join(t.TempDir(), "missing")}, ".hcl")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
