// Package watcher triggers a library rescan when files under the media
// directory change.
//
// Every directory below the root is watched (fsnotify is not recursive);
// directories created later are added as their create events arrive.
// Events are debounced: a rescan is requested once the tree has been quiet
// for the configured period, so copying a thousand photos costs one
// rescan rather than a thousand.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/metrics"
)

// Rescanner queues a rescan. *bootstrap.Orchestrator implements it.
type Rescanner interface {
	Rescan(ctx context.Context) error
}

// Watcher watches a media directory tree.
type Watcher struct {
	root      string
	rescanner Rescanner
	fsw       *fsnotify.Watcher
	debounced func(f func())
	log       *logging.Logger

	mu   sync.Mutex
	dirs int

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a watcher for root. It does nothing until Start.
func New(root string, rescanner Rescanner, quiet time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:      root,
		rescanner: rescanner,
		fsw:       fsw,
		debounced: debounce.New(quiet),
		log:       logging.For("watcher"),
		done:      make(chan struct{}),
	}, nil
}

// Start adds the directory tree and begins processing events. The
// watcher stops when ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.loop()
	return nil
}

// Dirs returns the number of watched directories.
func (w *Watcher) Dirs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirs
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return w.fsw.Close()
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.log.Warn("Cannot watch %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("Cannot watch %s: %v", path, err)
			return nil
		}
		w.mu.Lock()
		w.dirs++
		w.mu.Unlock()
		return nil
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if hidden(filepath.Base(ev.Name)) {
		return
	}
	metrics.WatcherEventsTotal.WithLabelValues(opLabel(ev.Op)).Inc()

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("Cannot watch new directory %s: %v", ev.Name, err)
			}
			w.schedule()
			return
		}
	}
	if !relevant(ev) {
		return
	}
	w.log.Debug("%s %s", ev.Op, ev.Name)
	w.schedule()
}

// schedule requests a rescan once events have stopped for the quiet
// period.
func (w *Watcher) schedule() {
	w.debounced(func() {
		if w.ctx.Err() != nil {
			return
		}
		metrics.WatcherRescansTotal.Inc()
		w.log.Info("Changes detected under %s, rescanning", w.root)
		if err := w.rescanner.Rescan(w.ctx); err != nil {
			w.log.Warn("Rescan request failed: %v", err)
		}
	})
}

// relevant reports whether an event can change the library. Removals
// and renames are always relevant since the old name may have been a
// directory.
func relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return true
	}
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
		_, ok := mediatypes.KindForPath(ev.Name)
		return ok
	}
	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func opLabel(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "chmod"
	}
}
