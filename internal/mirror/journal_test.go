package mirror

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *PassJournal {
	t.Helper()
	journal, err := NewPassJournal(filepath.Join(t.TempDir(), JournalFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })
	return journal
}

func TestPassJournal_RecordAndRecent(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	first := &Result{
		PassID:    "pass-1",
		StartedAt: base,
		Took:      120 * time.Millisecond,
		Created:   2,
		Bytes:     1024,
	}
	second := &Result{
		PassID:    "pass-2",
		StartedAt: base.Add(time.Minute),
		Took:      30 * time.Millisecond,
		Copied:    1,
		Errors:    1,
	}

	require.NoError(t, journal.Record(first))
	require.NoError(t, journal.Record(second))

	count, err := journal.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	recs, err := journal.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// newest first
	assert.Equal(t, "pass-2", recs[0].ID)
	assert.Equal(t, 1, recs[0].Copied)
	assert.Equal(t, 1, recs[0].Errors)

	assert.Equal(t, "pass-1", recs[1].ID)
	assert.Equal(t, 2, recs[1].Created)
	assert.Equal(t, int64(1024), recs[1].Bytes)
	assert.Equal(t, int64(120), recs[1].DurationMS)

	started, err := recs[1].Started()
	require.NoError(t, err)
	assert.True(t, started.Equal(base))
}

func TestPassJournal_RecentLimit(t *testing.T) {
	journal := newTestJournal(t)

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, journal.Record(&Result{
			PassID:    fmt.Sprintf("pass-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	recs, err := journal.Recent(2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestPassJournal_EmptyRecent(t *testing.T) {
	journal := newTestJournal(t)

	recs, err := journal.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, recs)

	count, err := journal.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPassJournal_ReopenKeepsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), JournalFileName)

	journal, err := NewPassJournal(dbPath)
	require.NoError(t, err)
	require.NoError(t, journal.Record(&Result{PassID: "pass-1", StartedAt: time.Now()}))
	require.NoError(t, journal.Close())

	journal, err = NewPassJournal(dbPath)
	require.NoError(t, err)
	defer journal.Close()

	count, err := journal.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
