// Package watcher re-triggers layout when a graph snapshot file
// changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/voxgraph/layout-engine/pkg/logging"
)

// ChangeEvent reports that the watched snapshot changed.
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// SnapshotWatcher watches a single snapshot file for writes. The
// containing directory is watched rather than the file itself so
// atomic rename-in-place saves are picked up too.
type SnapshotWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// NewSnapshotWatcher creates a watcher for the given snapshot path.
func NewSnapshotWatcher(path string) (*SnapshotWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve snapshot path: %w", err)
	}
	return &SnapshotWatcher{
		watcher: fsw,
		path:    abs,
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Start begins watching. Events are delivered on Events until the
// context is cancelled.
func (w *SnapshotWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	logging.Info("watching snapshot", "path", w.path)

	go w.processEvents(ctx)
	return nil
}

// Events returns the channel of raw change events. Most callers will
// wrap it in a Debouncer.
func (w *SnapshotWatcher) Events() <-chan ChangeEvent {
	return w.events
}

func (w *SnapshotWatcher) processEvents(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			close(w.events)
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				close(w.events)
				return
			}
			if !w.relevant(event) {
				continue
			}
			logging.Debug("snapshot changed", "op", event.Op.String())
			select {
			case w.events <- ChangeEvent{Path: w.path, Timestamp: time.Now()}:
			default:
				// Channel full; a change is already pending.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				close(w.events)
				return
			}
			logging.Warn("watcher error", "error", err)
		}
	}
}

func (w *SnapshotWatcher) relevant(event fsnotify.Event) bool {
	if event.Name != w.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}
