// Package watcher reports changes to configuration files such as
// settings.json and the catalog override.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ChangeKind describes what happened to a watched file.
type ChangeKind string

const (
	Modified ChangeKind = "modified"
	Removed  ChangeKind = "removed"
)

// Change is one debounced change to a watched file.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher monitors a set of files and calls onChange after a quiet period.
// It watches the parent directories since editors often replace files
// instead of writing them in place.
type Watcher struct {
	onChange func(Change)
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	targets  map[string]bool
	pending  map[string]ChangeKind
	timer    *time.Timer
	mu       sync.Mutex
	running  bool
	debounce time.Duration
}

// New creates a Watcher for the given files. Empty paths are ignored.
func New(paths []string, onChange func(Change)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		onChange: onChange,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		targets:  make(map[string]bool),
		pending:  make(map[string]ChangeKind),
		debounce: 200 * time.Millisecond,
	}
	for _, p := range paths {
		if p != "" {
			w.targets[filepath.Clean(p)] = true
		}
	}
	return w, nil
}

// SetDebounce changes the quiet period. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs := make(map[string]bool)
	for target := range w.targets {
		dirs[filepath.Dir(target)] = true
	}
	for dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to add watch")
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to add watch")
		}
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	w.cancel()
	if w.timer != nil {
		w.timer.Stop()
	}
	return w.watcher.Close()
}

// watchLoop is the main event loop.
func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			path := filepath.Clean(event.Name)
			if !w.targets[path] {
				continue
			}

			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.record(path, Removed)
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.record(path, Modified)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

// record notes a change and restarts the debounce timer. A file that is
// removed and then recreated within the quiet period counts as modified.
func (w *Watcher) record(path string, kind ChangeKind) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = kind
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changes := make([]Change, 0, len(w.pending))
	for path, kind := range w.pending {
		changes = append(changes, Change{Path: path, Kind: kind})
	}
	w.pending = make(map[string]ChangeKind)
	running := w.running
	w.mu.Unlock()

	if !running || w.onChange == nil {
		return
	}
	for _, c := range changes {
		log.Info().Str("path", c.Path).Str("kind", string(c.Kind)).Msg("Watched file changed")
		w.onChange(c)
	}
}
