package mirror

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mirrorbox/mirrorbox/internal/utils"
)

// OpLogger is the sink for applied destination mutations, one record per
// operation. The engine only appends; records are never read back. The caller
// owns the lifecycle and closes the logger at shutdown.
type OpLogger interface {
	Log(op OpType, relPath string) error
	Close() error
}

// FileOpLog appends `<timestamp> <operation> <relative-path>` lines to a file.
type FileOpLog struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewFileOpLog opens (or creates) an append-only operations log at path.
func NewFileOpLog(path string) (*FileOpLog, error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	return &FileOpLog{file: f, now: time.Now}, nil
}

func (l *FileOpLog) Log(op OpType, relPath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := fmt.Fprintf(l.file, "%s %s %s\n", l.now().Format(time.RFC3339), op, relPath)
	return err
}

func (l *FileOpLog) Close() error {
	return l.file.Close()
}

// DiscardOpLog drops every record.
type DiscardOpLog struct{}

func (DiscardOpLog) Log(OpType, string) error { return nil }
func (DiscardOpLog) Close() error             { return nil }
