package monitor

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher observes a directory tree for create/modify/delete events and
// logs them with UTC timestamps. Directories created while watching are
// added to the watch set.
type FileWatcher struct {
	root   string
	logger *slog.Logger
}

// NewFileWatcher validates the root and creates a watcher. Pass nil for
// logger to disable logging.
func NewFileWatcher(root string, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("file monitor root: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("file monitor root %q is not a directory", root)
	}
	return &FileWatcher{root: root, logger: logger}, nil
}

// Run blocks until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, w.root); err != nil {
		return err
	}
	w.logger.Info("file monitor started", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file monitor stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file monitor error", "error", err)
		}
	}
}

func (w *FileWatcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			if err := watcher.Add(ev.Name); err != nil {
				w.logger.Warn("watch add failed", "path", ev.Name, "error", err)
			}
			return
		}
	}

	var op string
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = "created"
	case ev.Op.Has(fsnotify.Write):
		op = "modified"
	case ev.Op.Has(fsnotify.Remove):
		op = "deleted"
	case ev.Op.Has(fsnotify.Rename):
		op = "renamed"
	default:
		return
	}
	w.logger.Info("file event", "op", op, "path", ev.Name, "at", time.Now().UTC().Format(time.RFC3339))
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			return nil
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}
