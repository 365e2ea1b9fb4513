// Package watch rebuilds the index whenever a document under a corpus
// root changes. Every settled batch of events triggers one full rebuild;
// nothing is re-indexed incrementally.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ctxgraph/internal/logging"
	"ctxgraph/internal/metrics"
)

// DefaultDebounce is how long the corpus must stay quiet before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc rebuilds and saves the index, returning its node count.
type RebuildFunc func(ctx context.Context) (int, error)

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Rebuilds      int
	Failures      int
	LastEventPath string
	LastEventType string
	LastRebuild   time.Time
	LastNodes     int
}

// Watcher watches the corpus roots recursively.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	roots       []string
	extensions  map[string]bool
	rebuild     RebuildFunc
	debounceDur time.Duration
	pending     bool
	lastEvent   time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a watcher over roots. Only files whose extension is in
// extensions (compared case-insensitively) count as changes, plus removals
// and renames, which may be whole directories. A debounce of zero uses
// DefaultDebounce.
func New(roots, extensions []string, rebuild RebuildFunc, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Watcher{
		watcher:     fw,
		roots:       roots,
		extensions:  exts,
		rebuild:     rebuild,
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start adds every existing root and begins the event loop. Missing roots
// are skipped; it is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, root := range w.roots {
		if err := w.addTree(root); err != nil {
			logging.Get(logging.CategoryWatch).Warn("Not watching %s: %v", root, err)
			continue
		}
		logging.Watch("Watching %s", root)
	}

	go w.run(ctx)
	return nil
}

// Stop ends the event loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("Error closing watcher: %v", err)
	}
	logging.Watch("Watcher stopped")
}

// Done is closed when the event loop has exited, including after the
// context passed to Start is cancelled.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounceDur / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("Context cancelled")
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchError("Watcher error: %v", err)
			w.mu.Lock()
			w.stats.Failures++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}

	if eventType == "create" {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logging.WatchError("Failed to watch new directory %s: %v", event.Name, err)
			}
			w.record(event.Name, eventType)
			return
		}
	}

	relevant := w.extensions[strings.ToLower(filepath.Ext(event.Name))] ||
		eventType == "delete" || eventType == "rename"
	if !relevant {
		return
	}
	w.record(event.Name, eventType)
}

func (w *Watcher) record(path, eventType string) {
	logging.Get(logging.CategoryWatch).Debug("%s event for %s", eventType, path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Events++
	w.stats.LastEventPath = path
	w.stats.LastEventType = eventType
	w.pending = true
	w.lastEvent = time.Now()
}

// processDebounced runs one rebuild once events have settled.
func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	nodes, err := w.rebuild(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.WatchError("Rebuild failed: %v", err)
		}
		w.stats.Failures++
		metrics.Rebuilds.WithLabelValues("error").Inc()
		return
	}
	w.stats.Rebuilds++
	w.stats.LastRebuild = time.Now()
	w.stats.LastNodes = nodes
	metrics.Rebuilds.WithLabelValues("ok").Inc()
	logging.Watch("Rebuilt index: %d nodes", nodes)
}

// Stats returns a copy of the watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
