package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitForChange waits for a change matching ns/key or fails after timeout.
func waitForChange(t *testing.T, w *Watcher, ns, key string, timeout time.Duration) Change {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case c := <-w.Events():
			if c.Matches(ns, key) {
				return c
			}
		case err := <-w.Errors():
			t.Fatalf("watcher error: %v", err)
		case <-deadline:
			t.Fatalf("timed out waiting for change to %s/%s", ns, key)
		}
	}
}

func TestNewWatcher(t *testing.T) {
	s, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir() failed: %v", err)
	}
	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Stop()

	if w.IsRunning() {
		t.Error("Newly created watcher should not be running")
	}
}

func TestWatcher_StartStop(t *testing.T) {
	s, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir() failed: %v", err)
	}
	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !w.IsRunning() {
		t.Error("Watcher should be running after Start()")
	}
	if err := w.Start(); err == nil {
		t.Error("Second Start() should fail when watcher is already running")
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
	if w.IsRunning() {
		t.Error("Watcher should not be running after Stop()")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() failed: %v", err)
	}
}

func TestWatcher_StartMissingDir(t *testing.T) {
	root := t.TempDir()
	s, err := OpenDir(root)
	if err != nil {
		t.Fatalf("OpenDir() failed: %v", err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll() failed: %v", err)
	}

	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err == nil {
		t.Error("Start() should fail when the directory is gone")
	}
}

func TestWatcher_DirStoreWrite(t *testing.T) {
	ctx := context.Background()
	s, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir() failed: %v", err)
	}
	if err := s.EnsureNamespace(DefaultGroup); err != nil {
		t.Fatalf("EnsureNamespace() failed: %v", err)
	}

	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := s.Set(ctx, DefaultGroup, KeyDishes, []byte(`[]`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	c := waitForChange(t, w, DefaultGroup, KeyDishes, 2*time.Second)
	if c.Key != KeyDishes {
		t.Errorf("change key = %q, want %q", c.Key, KeyDishes)
	}
}

func TestWatcher_NewNamespaceIsWatched(t *testing.T) {
	ctx := context.Background()
	s, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDir() failed: %v", err)
	}

	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := s.EnsureNamespace(CompanionGroup); err != nil {
		t.Fatalf("EnsureNamespace() failed: %v", err)
	}
	// Give the watcher a moment to pick up the new directory.
	time.Sleep(100 * time.Millisecond)

	if err := s.Set(ctx, CompanionGroup, KeyDishes, []byte(`[]`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	waitForChange(t, w, CompanionGroup, KeyDishes, 2*time.Second)
}

func TestWatcher_SQLiteWrite(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "shared.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer s.Close()

	w, err := NewWatcher(s)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if err := s.Set(ctx, DefaultGroup, KeyDishes, []byte(`[]`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	c := waitForChange(t, w, DefaultGroup, KeyDishes, 2*time.Second)
	if c.Key != "" {
		t.Errorf("SQLite change key = %q, want empty", c.Key)
	}
}

func TestChange_Matches(t *testing.T) {
	tests := []struct {
		c    Change
		want bool
	}{
		{Change{}, true},
		{Change{Namespace: DefaultGroup}, true},
		{Change{Namespace: DefaultGroup, Key: KeyDishes}, true},
		{Change{Namespace: DefaultGroup, Key: KeyCompletedDishes}, false},
		{Change{Namespace: CompanionGroup}, false},
	}
	for _, tt := range tests {
		if got := tt.c.Matches(DefaultGroup, KeyDishes); got != tt.want {
			t.Errorf("%+v.Matches() = %v, want %v", tt.c, got, tt.want)
		}
	}
}
