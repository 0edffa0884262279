package mirror

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// FileEntry is one directory or regular file observed during a snapshot walk.
type FileEntry struct {
	Path   string // slash-separated, relative to the tree root
	IsDir  bool
	Size   int64
	Digest string // hex SHA-256 of the content; empty for directories
}

// Snapshot maps relative paths to their entries for one tree. It is rebuilt
// from scratch on every sync pass and never cached in between.
type Snapshot map[string]*FileEntry

// SkipList records the paths a snapshot walk left out: non-regular entries
// and entries that failed to stat, read or hash. A skipped source path still
// exists, it just could not be captured, so everything it covers must be
// shielded from the remove sweep rather than treated as gone.
type SkipList struct {
	paths  []string
	errors int
}

func (s *SkipList) add(relPath string, readError bool) {
	s.paths = append(s.paths, relPath)
	if readError {
		s.errors++
	}
}

// Errors returns how many skips were caused by read or stat failures, as
// opposed to deliberately skipped non-regular entries.
func (s *SkipList) Errors() int {
	if s == nil {
		return 0
	}
	return s.errors
}

// Covers reports whether relPath equals a skipped path, lies underneath one
// (an unreadable directory hides its children), or has one underneath it (a
// directory holding a skipped entry must itself survive).
func (s *SkipList) Covers(relPath string) bool {
	if s == nil {
		return false
	}
	for _, p := range s.paths {
		if p == relPath || strings.HasPrefix(relPath, p+"/") || strings.HasPrefix(p, relPath+"/") {
			return true
		}
	}
	return false
}

// TakeSnapshot walks root and records every directory and regular file with
// its content digest. Paths matched by the ignore list are left out entirely.
// Symlinks and other non-regular entries are skipped with a warning and
// per-entry read errors are skipped with an error record; both land in the
// returned SkipList so the caller can keep their replicas intact. Failure to
// access root itself is returned to the caller.
func TakeSnapshot(ctx context.Context, root string, ignore *IgnoreList) (Snapshot, *SkipList, error) {
	snap := make(Snapshot)
	skips := &SkipList{}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("access %s: %w", root, err)
			}
			relPath, relErr := filepath.Rel(root, path)
			if relErr == nil {
				skips.add(filepath.ToSlash(relPath), true)
			}
			slog.Error("snapshot read failed", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == root {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if ignore != nil && ignore.Match(relPath, d.IsDir()) {
			slog.Debug("snapshot ignore", "path", relPath)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			snap[relPath] = &FileEntry{Path: relPath, IsDir: true}
			return nil
		}

		if !d.Type().IsRegular() {
			slog.Warn("snapshot skip non-regular entry", "path", relPath, "mode", d.Type().String())
			skips.add(relPath, false)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Error("snapshot stat failed", "path", relPath, "error", err)
			skips.add(relPath, true)
			return nil
		}

		digest, err := HashFile(path)
		if err != nil {
			slog.Error("snapshot hash failed", "path", relPath, "error", err)
			skips.add(relPath, true)
			return nil
		}

		snap[relPath] = &FileEntry{Path: relPath, Size: info.Size(), Digest: digest}
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, nil, err
	}
	return snap, skips, nil
}
