package mirror

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreList_Defaults(t *testing.T) {
	ignore := NewIgnoreList(t.TempDir())

	cases := []struct {
		name    string
		relPath string
		isDir   bool
		want    bool
	}{
		{"metadata-dir", MetadataDirName, true, true},
		{"ignore-file", IgnoreFileName, false, true},
		{"ds-store", ".DS_Store", false, true},
		{"nested-ds-store", "sub/.DS_Store", false, true},
		{"swap-file", "notes.swp", false, true},
		{"tmp-file", "upload.tmp", false, true},
		{"regular-file", "a.txt", false, false},
		{"regular-dir", "docs", true, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ignore.Match(c.relPath, c.isDir))
		})
	}
}

func TestIgnoreList_ReadsMirrorignoreFile(t *testing.T) {
	root := t.TempDir()
	content := "# build output\ndist/\n*.bak\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(content), 0o644))

	ignore := NewIgnoreList(root)

	assert.True(t, ignore.Match("dist", true))
	assert.True(t, ignore.Match("dist/bundle.js", false))
	assert.True(t, ignore.Match("old.bak", false))
	assert.False(t, ignore.Match("src/main.go", false))
}

func TestIgnoreList_MissingMirrorignoreFile(t *testing.T) {
	ignore := NewIgnoreList(t.TempDir())
	assert.False(t, ignore.Match("anything.txt", false))
}
