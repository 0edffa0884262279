// Package daemon owns the scheduler shell around the sync engine: the
// destination lock, the poll timer and the optional watch mode. The engine
// itself stays schedule-free and is invoked one pass at a time.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/rjeczalik/notify"

	"github.com/mirrorbox/mirrorbox/internal/daemon/config"
	"github.com/mirrorbox/mirrorbox/internal/mirror"
	"github.com/mirrorbox/mirrorbox/internal/utils"
)

const (
	lockFileName  = "mirrorbox.lock"
	opLogFileName = "sync.log"

	// debounceDelay coalesces watcher event bursts into one early pass.
	debounceDelay = 500 * time.Millisecond
)

var ErrDestinationLocked = errors.New("destination locked by another mirrorbox instance")

// Daemon runs sync passes on a fixed interval. Passes never overlap: the loop
// is single-threaded and a pass runs to completion before the timer is armed
// again.
type Daemon struct {
	cfg     *config.Config
	engine  *mirror.Engine
	oplog   mirror.OpLogger
	journal *mirror.PassJournal
	watcher *mirror.FileWatcher
	flock   *flock.Flock
	metaDir string
}

// New creates a daemon for a validated config.
func New(cfg *config.Config) (*Daemon, error) {
	metaDir := filepath.Join(cfg.DestDir, mirror.MetadataDirName)
	return &Daemon{
		cfg:     cfg,
		metaDir: metaDir,
		flock:   flock.New(filepath.Join(metaDir, lockFileName)),
	}, nil
}

// Start runs an initial pass, then one pass per interval until ctx is
// cancelled. Root-access failures abort only the current pass; the next tick
// retries.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.setup(); err != nil {
		return err
	}
	defer d.teardown()

	slog.Info("mirrorbox start",
		"source", d.cfg.SourceDir,
		"dest", d.cfg.DestDir,
		"interval", d.cfg.Interval(),
		"watch", d.cfg.Watch,
	)

	var watchEvents <-chan notify.EventInfo
	if d.cfg.Watch {
		d.watcher = mirror.NewFileWatcher(d.cfg.SourceDir)
		if err := d.watcher.Start(); err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		watchEvents = d.watcher.Events()
	}

	d.runPass(ctx)

	// a timer, not a ticker, so a slow pass never queues ticks
	timer := time.NewTimer(d.cfg.Interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("mirrorbox stop")
			return ctx.Err()
		case <-timer.C:
			d.runPass(ctx)
			timer.Reset(d.cfg.Interval())
		case ev, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			slog.Debug("watch event", "path", ev.Path(), "event", ev.Event().String())
			// schedule an early debounced pass via the same timer so
			// passes stay strictly sequential
			timer.Reset(debounceDelay)
		}
	}
}

// RunOnce performs the full setup, a single pass and teardown. Used by the
// one-shot `sync` command.
func (d *Daemon) RunOnce(ctx context.Context) (*mirror.Result, error) {
	if err := d.setup(); err != nil {
		return nil, err
	}
	defer d.teardown()

	return d.engine.Sync(ctx)
}

func (d *Daemon) setup() error {
	if err := utils.EnsureDir(d.cfg.DestDir); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if err := utils.EnsureDir(d.metaDir); err != nil {
		return fmt.Errorf("create metadata dir: %w", err)
	}

	locked, err := d.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock destination: %w", err)
	}
	if !locked {
		return ErrDestinationLocked
	}

	logFile := d.cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(d.metaDir, opLogFileName)
	}
	oplog, err := mirror.NewFileOpLog(logFile)
	if err != nil {
		d.unlock()
		return err
	}
	d.oplog = oplog

	journal, err := mirror.NewPassJournal(filepath.Join(d.metaDir, mirror.JournalFileName))
	if err != nil {
		d.oplog.Close()
		d.unlock()
		return err
	}
	d.journal = journal

	ignore := mirror.NewIgnoreList(d.cfg.SourceDir)
	d.engine = mirror.NewEngine(d.cfg.SourceDir, d.cfg.DestDir, d.oplog, ignore, d.journal)
	return nil
}

func (d *Daemon) teardown() {
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			slog.Error("close journal", "error", err)
		}
	}
	if d.oplog != nil {
		if err := d.oplog.Close(); err != nil {
			slog.Error("close operations log", "error", err)
		}
	}
	d.unlock()
}

func (d *Daemon) unlock() {
	if !d.flock.Locked() {
		return
	}
	if err := d.flock.Unlock(); err != nil {
		slog.Error("unlock destination", "error", err)
	}
}

func (d *Daemon) runPass(ctx context.Context) {
	if _, err := d.engine.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		// fatal for this pass only; the next tick retries
		slog.Error("sync pass failed", "error", err)
	}
}
