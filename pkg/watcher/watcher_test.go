package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSnapshotWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}

	w, err := NewSnapshotWatcher(path)
	if err != nil {
		t.Fatalf("NewSnapshotWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"nodes":[]}`), 0o644); err != nil {
		t.Fatalf("Failed to rewrite snapshot: %v", err)
	}

	select {
	case event := <-w.Events():
		if event.Path == "" {
			t.Errorf("Event missing path")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("No change event after a write")
	}
}

func TestSnapshotWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}

	w, err := NewSnapshotWatcher(path)
	if err != nil {
		t.Fatalf("NewSnapshotWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Writes to other files in the watched directory are filtered out.
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatalf("Failed to write sibling: %v", err)
	}

	select {
	case event := <-w.Events():
		t.Errorf("Unexpected event for sibling write: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestSnapshotWatcher_PicksUpAtomicRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("Failed to seed snapshot: %v", err)
	}

	w, err := NewSnapshotWatcher(path)
	if err != nil {
		t.Fatalf("NewSnapshotWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Editors often save via write-to-temp plus rename.
	tmp := filepath.Join(dir, ".graph.json.tmp")
	if err := os.WriteFile(tmp, []byte(`{"nodes":[]}`), 0o644); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("No change event after rename-in-place")
	}
}
