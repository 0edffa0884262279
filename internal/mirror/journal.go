package mirror

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mirrorbox/mirrorbox/internal/utils"
)

// JournalFileName is the journal database file inside the metadata dir.
const JournalFileName = "journal.db"

const journalSchema = `
CREATE TABLE IF NOT EXISTS sync_passes (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL, -- RFC3339 string
    duration_ms INTEGER NOT NULL,
    created INTEGER NOT NULL,
    copied INTEGER NOT NULL,
    removed INTEGER NOT NULL,
    errors INTEGER NOT NULL,
    bytes INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_passes_started_at ON sync_passes(started_at);
`

// PassRecord is one completed sync pass as stored in the journal.
type PassRecord struct {
	ID         string `db:"id"`
	StartedAt  string `db:"started_at"`
	DurationMS int64  `db:"duration_ms"`
	Created    int    `db:"created"`
	Copied     int    `db:"copied"`
	Removed    int    `db:"removed"`
	Errors     int    `db:"errors"`
	Bytes      int64  `db:"bytes"`
}

// Started parses the stored RFC3339 start timestamp.
func (r *PassRecord) Started() (time.Time, error) {
	return time.Parse(time.RFC3339, r.StartedAt)
}

// PassJournal keeps a history of completed sync passes in SQLite. It records
// pass summaries only, never tree state; every pass still rebuilds both
// snapshots from the filesystem.
type PassJournal struct {
	db     *sqlx.DB
	dbPath string
}

// NewPassJournal creates or opens a PassJournal backed by an SQLite database.
func NewPassJournal(dbPath string) (*PassJournal, error) {
	if err := utils.EnsureParent(dbPath); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db at %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1) // SQLite best practice for WAL mode

	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	return &PassJournal{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database connection.
func (j *PassJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Record appends one pass summary.
func (j *PassJournal) Record(res *Result) error {
	rec := &PassRecord{
		ID:         res.PassID,
		StartedAt:  res.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: res.Took.Milliseconds(),
		Created:    res.Created,
		Copied:     res.Copied,
		Removed:    res.Removed,
		Errors:     res.Errors,
		Bytes:      res.Bytes,
	}

	_, err := j.db.NamedExec(
		`INSERT INTO sync_passes (id, started_at, duration_ms, created, copied, removed, errors, bytes)
		 VALUES (:id, :started_at, :duration_ms, :created, :copied, :removed, :errors, :bytes)`,
		rec,
	)
	if err != nil {
		return fmt.Errorf("record pass %s: %w", res.PassID, err)
	}
	return nil
}

// Recent returns up to n pass records, newest first.
func (j *PassJournal) Recent(n int) ([]*PassRecord, error) {
	var recs []*PassRecord
	err := j.db.Select(&recs,
		`SELECT id, started_at, duration_ms, created, copied, removed, errors, bytes
		 FROM sync_passes ORDER BY started_at DESC, id LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent passes: %w", err)
	}
	return recs, nil
}

// Count returns the number of recorded passes.
func (j *PassJournal) Count() (int, error) {
	var count int
	if err := j.db.Get(&count, "SELECT COUNT(*) FROM sync_passes"); err != nil {
		return 0, fmt.Errorf("count passes: %w", err)
	}
	return count, nil
}
