package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	MakeDir(filepath.Join(dir, "out", "nested"))

	path := filepath.Join(dir, "out", "nested", "run.phylosim")
	WriteFile(path, []byte("payload"))
	assert.Equal(t, []byte("payload"), ReadFile(path))

	fsys, ok := os.DirFS(dir).(FS)
	require.True(t, ok)
	assert.True(t, FileExists(fsys, "out/nested/run.phylosim"))
	assert.False(t, FileExists(fsys, "out/nested/missing.phylosim"))

	DeleteFile(path)
	assert.False(t, FileExists(fsys, "out/nested/run.phylosim"))
	// Deleting a file that isn't there is not an error.
	DeleteFile(path)
}

func TestGetFiles(t *testing.T) {
	dir := t.TempDir()
	WriteFile(filepath.Join(dir, "a_0.phy"), []byte("x"))
	WriteFile(filepath.Join(dir, "a_1.phy"), []byte("x"))
	WriteFile(filepath.Join(dir, "a.treefile"), []byte("x"))

	fsys, ok := os.DirFS(dir).(FS)
	require.True(t, ok)
	files := GetFiles(fsys, ".", "*.phy")
	assert.ElementsMatch(t, []string{"./a_0.phy", "./a_1.phy"}, files)
}
