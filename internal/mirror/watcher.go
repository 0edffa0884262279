package mirror

import (
	"log/slog"

	"github.com/rjeczalik/notify"
)

// FileWatcher emits filesystem events for the watched tree. The daemon uses
// it in watch mode to schedule an early sync pass instead of waiting for the
// next tick; the engine itself never depends on it.
type FileWatcher struct {
	watchDir string
	events   chan notify.EventInfo
}

func NewFileWatcher(watchDir string) *FileWatcher {
	return &FileWatcher{
		watchDir: watchDir,
		events:   make(chan notify.EventInfo, 64),
	}
}

func (fw *FileWatcher) Start() error {
	slog.Info("file watcher start", "dir", fw.watchDir)

	recursivePath := fw.watchDir + "/..."
	return notify.Watch(recursivePath, fw.events, notify.All)
}

func (fw *FileWatcher) Stop() {
	notify.Stop(fw.events)
	close(fw.events)
	slog.Info("file watcher stop")
}

func (fw *FileWatcher) Events() <-chan notify.EventInfo {
	return fw.events
}
