package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b/x.aswb-build", "a.aswb-build", "c/d/e.aswb-build", "other.txt"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, nil, 0644))
	}
	files, err := FindFiles(dir, ".aswb-build")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.aswb-build"),
		filepath.Join(dir, "b/x.aswb-build"),
		filepath.Join(dir, "c/d/e.aswb-build"),
	}, files)
}

func TestFindFilesMissingDir(t *testing.T) {
	_, err := FindFiles(filepath.Join(t.TempDir(), "nope"), ".aswb-build")
	assert.Error(t, err)
}

func TestWalkSingleFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(p, nil, 0644))
	var seen []string
	require.NoError(t, Walk(p, func(name string, isDir bool) error {
		seen = append(seen, name)
		return nil
	}))
	assert.Equal(t, []string{p}, seen)
}
