package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

type countingRescanner struct {
	calls atomic.Int32
}

func (c *countingRescanner) Rescan(context.Context) error {
	c.calls.Add(1)
	return nil
}

func startWatcher(t *testing.T, root string, quiet time.Duration) (*Watcher, *countingRescanner) {
	t.Helper()
	r := &countingRescanner{}
	w, err := New(root, r, quiet)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w, r
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAddTreeSkipsHidden(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"a", "a/b", ".thumbs", ".thumbs/x"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	w, _ := startWatcher(t, root, time.Hour)
	if got := w.Dirs(); got != 3 {
		t.Errorf("Dirs() = %d, want 3 (root, a, a/b)", got)
	}
}

func TestStartMissingRoot(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing"), &countingRescanner{}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Start(context.Background()); err == nil {
		t.Error("Start() expected error for missing root")
	}
}

func TestDebouncedRescan(t *testing.T) {
	root := t.TempDir()
	_, r := startWatcher(t, root, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		name := filepath.Join(root, "img"+string(rune('a'+i))+".jpg")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool { return r.calls.Load() >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := r.calls.Load(); n != 1 {
		t.Errorf("rescans = %d, want 1 for a burst of writes", n)
	}
}

func TestNewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w, r := startWatcher(t, root, 50*time.Millisecond)

	sub := filepath.Join(root, "holiday")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return w.Dirs() == 2 })
	waitFor(t, func() bool { return r.calls.Load() >= 1 })

	before := r.calls.Load()
	if err := os.WriteFile(filepath.Join(sub, "beach.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return r.calls.Load() > before })
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"photo created", fsnotify.Event{Name: "/m/a.jpg", Op: fsnotify.Create}, true},
		{"video written", fsnotify.Event{Name: "/m/a.MOV", Op: fsnotify.Write}, true},
		{"text written", fsnotify.Event{Name: "/m/notes.txt", Op: fsnotify.Write}, false},
		{"anything removed", fsnotify.Event{Name: "/m/dir", Op: fsnotify.Remove}, true},
		{"anything renamed", fsnotify.Event{Name: "/m/x", Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: "/m/a.jpg", Op: fsnotify.Chmod}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relevant(tt.ev); got != tt.want {
				t.Errorf("relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func TestOpLabel(t *testing.T) {
	tests := map[fsnotify.Op]string{
		fsnotify.Create:                  "create",
		fsnotify.Write:                   "write",
		fsnotify.Remove:                  "remove",
		fsnotify.Rename:                  "rename",
		fsnotify.Chmod:                   "chmod",
		fsnotify.Create | fsnotify.Write: "create",
	}
	for op, want := range tests {
		if got := opLabel(op); got != want {
			t.Errorf("opLabel(%v) = %q, want %q", op, got, want)
		}
	}
}
