package mirror

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLogLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestFileOpLog_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")
	oplog, err := NewFileOpLog(path)
	require.NoError(t, err)

	require.NoError(t, oplog.Log(OpCreated, "a.txt"))
	require.NoError(t, oplog.Log(OpCopied, "sub/b.txt"))
	require.NoError(t, oplog.Log(OpRemoved, "gone.txt"))
	require.NoError(t, oplog.Close())

	lines := readLogLines(t, path)
	require.Len(t, lines, 3)

	wantOps := []string{"created", "copied", "removed"}
	wantPaths := []string{"a.txt", "sub/b.txt", "gone.txt"}
	var prev time.Time
	for i, line := range lines {
		fields := strings.Fields(line)
		require.Len(t, fields, 3, line)

		ts, err := time.Parse(time.RFC3339, fields[0])
		require.NoError(t, err, line)
		assert.False(t, ts.Before(prev), "timestamps must be non-decreasing")
		prev = ts

		assert.Equal(t, wantOps[i], fields[1])
		assert.Equal(t, wantPaths[i], fields[2])
	}
}

func TestFileOpLog_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.log")

	oplog, err := NewFileOpLog(path)
	require.NoError(t, err)
	require.NoError(t, oplog.Log(OpCreated, "first.txt"))
	require.NoError(t, oplog.Close())

	oplog, err = NewFileOpLog(path)
	require.NoError(t, err)
	require.NoError(t, oplog.Log(OpRemoved, "second.txt"))
	require.NoError(t, oplog.Close())

	lines := readLogLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "created first.txt")
	assert.Contains(t, lines[1], "removed second.txt")
}

func TestFileOpLog_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sync.log")
	oplog, err := NewFileOpLog(path)
	require.NoError(t, err)
	require.NoError(t, oplog.Close())
	assert.FileExists(t, path)
}
