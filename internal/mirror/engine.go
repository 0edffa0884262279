package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mirrorbox/mirrorbox/internal/utils"
)

// MetadataDirName is the reserved directory under the destination root holding
// the lock file, pass journal and default operations log. It never takes part
// in reconciliation.
const MetadataDirName = ".mirrorbox"

var ErrSyncAlreadyRunning = errors.New("sync already running")

// Engine reconciles the destination tree against the source tree, one pass at
// a time. A pass snapshots both trees, diffs them and applies the resulting
// plan. Passes are idempotent: a second pass over unchanged trees is a no-op.
type Engine struct {
	sourceDir string
	destDir   string
	oplog     OpLogger
	ignore    *IgnoreList
	journal   *PassJournal
	muSync    sync.Mutex
}

// Result summarizes one completed sync pass.
type Result struct {
	PassID    string
	StartedAt time.Time
	Took      time.Duration
	Created   int
	Copied    int
	Removed   int
	Errors    int
	Unchanged int
	Bytes     int64
}

// Empty reports whether the pass applied no mutations and hit no errors.
func (r *Result) Empty() bool {
	return r.Created == 0 && r.Copied == 0 && r.Removed == 0 && r.Errors == 0
}

// NewEngine creates an engine mirroring sourceDir into destDir. A nil oplog
// discards operation records; a nil journal disables pass history.
func NewEngine(sourceDir, destDir string, oplog OpLogger, ignore *IgnoreList, journal *PassJournal) *Engine {
	if oplog == nil {
		oplog = DiscardOpLog{}
	}
	return &Engine{
		sourceDir: sourceDir,
		destDir:   destDir,
		oplog:     oplog,
		ignore:    ignore,
		journal:   journal,
	}
}

// Sync runs one full reconciliation pass. A failure to read either root is
// fatal for the pass; per-file errors are logged, counted and skipped so the
// rest of the pass still runs. Only one pass may run at a time.
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	if !e.muSync.TryLock() {
		return nil, ErrSyncAlreadyRunning
	}
	defer e.muSync.Unlock()

	tstart := time.Now()
	res := &Result{PassID: uuid.NewString(), StartedAt: tstart}

	srcSnap, srcSkips, err := TakeSnapshot(ctx, e.sourceDir, e.ignore)
	if err != nil {
		return nil, fmt.Errorf("snapshot source: %w", err)
	}
	// source entries that failed to read are pass errors, not deletions
	res.Errors += srcSkips.Errors()

	dstSnap, _, err := TakeSnapshot(ctx, e.destDir, e.ignore)
	if err != nil {
		return nil, fmt.Errorf("snapshot destination: %w", err)
	}

	plan := BuildPlan(srcSnap, dstSnap, srcSkips)
	res.Unchanged = plan.Unchanged

	// removes first so type flips never collide with their re-create
	e.applyRemoves(ctx, plan.Removes, res)
	e.applyCreates(ctx, plan.Creates, res)
	e.applyCopies(ctx, plan.Copies, res)

	res.Took = time.Since(tstart)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if e.journal != nil {
		if err := e.journal.Record(res); err != nil {
			slog.Error("journal record", "error", err)
		}
	}

	if !res.Empty() {
		slog.Info("sync pass",
			"took", res.Took,
			"created", res.Created,
			"copied", res.Copied,
			"removed", res.Removed,
			"errors", res.Errors,
			"unchanged", res.Unchanged,
			"bytes", humanize.Bytes(uint64(res.Bytes)),
		)
	}

	return res, nil
}

func (e *Engine) applyCreates(ctx context.Context, ops []*Operation, res *Result) {
	for _, op := range ops {
		if ctx.Err() != nil {
			return
		}
		target := e.destPath(op.RelPath)
		if op.Entry.IsDir {
			// structural: directories get no log record, only file copies do
			if err := os.MkdirAll(target, 0o755); err != nil {
				e.fail(res, op, err)
			}
			continue
		}
		n, err := e.copyFile(e.sourcePath(op.RelPath), target)
		if err != nil {
			e.fail(res, op, err)
			continue
		}
		res.Bytes += n
		res.Created++
		e.logOp(OpCreated, op.RelPath)
	}
}

func (e *Engine) applyCopies(ctx context.Context, ops []*Operation, res *Result) {
	for _, op := range ops {
		if ctx.Err() != nil {
			return
		}
		n, err := e.copyFile(e.sourcePath(op.RelPath), e.destPath(op.RelPath))
		if err != nil {
			e.fail(res, op, err)
			continue
		}
		res.Bytes += n
		res.Copied++
		e.logOp(OpCopied, op.RelPath)
	}
}

func (e *Engine) applyRemoves(ctx context.Context, ops []*Operation, res *Result) {
	for _, op := range ops {
		if ctx.Err() != nil {
			return
		}
		target := e.destPath(op.RelPath)
		var err error
		if op.Entry.IsDir {
			err = os.RemoveAll(target)
		} else {
			err = os.Remove(target)
		}
		if err != nil {
			e.fail(res, op, err)
			continue
		}
		res.Removed++
		e.logOp(OpRemoved, op.RelPath)
	}
}

// copyFile overwrites dst with the content of src, creating missing parent
// directories. Writes are whole-file; an interrupted copy is detected and
// redone by the next pass's digest comparison.
func (e *Engine) copyFile(src, dst string) (int64, error) {
	if err := utils.EnsureParent(dst); err != nil {
		return 0, err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dstFile, srcFile)
	if err != nil {
		dstFile.Close()
		return n, err
	}
	return n, dstFile.Close()
}

func (e *Engine) fail(res *Result, op *Operation, err error) {
	res.Errors++
	slog.Error("sync op failed", "op", op.Op.String(), "path", op.RelPath, "error", err)
}

func (e *Engine) logOp(op OpType, relPath string) {
	if err := e.oplog.Log(op, relPath); err != nil {
		slog.Error("oplog write failed", "op", op.String(), "path", relPath, "error", err)
	}
}

func (e *Engine) sourcePath(relPath string) string {
	return filepath.Join(e.sourceDir, filepath.FromSlash(relPath))
}

func (e *Engine) destPath(relPath string) string {
	return filepath.Join(e.destDir, filepath.FromSlash(relPath))
}
