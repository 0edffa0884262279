package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := ResolvePath("")
		require.Error(t, err)
	})

	t.Run("tilde-expansion", func(t *testing.T) {
		resolved, err := ResolvePath("~/data")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resolved, home))
	})

	t.Run("relative-becomes-absolute", func(t *testing.T) {
		resolved, err := ResolvePath("./some/dir")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(resolved))
	})
}

func TestEnsureDirAndParent(t *testing.T) {
	root := t.TempDir()

	dir := filepath.Join(root, "a", "b", "c")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))

	// idempotent
	require.NoError(t, EnsureDir(dir))

	file := filepath.Join(root, "x", "y", "file.txt")
	require.NoError(t, EnsureParent(file))
	assert.True(t, DirExists(filepath.Dir(file)))
	assert.False(t, FileExists(file))
}

func TestFileExistsDirExists(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, DirExists(file))
	assert.True(t, DirExists(root))
	assert.False(t, FileExists(root))
	assert.False(t, FileExists(filepath.Join(root, "nope")))
}
