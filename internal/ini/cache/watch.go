package cache

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when using a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// Watcher reloads clean cache entries when their file changes on disk.
//
// It watches the parent directory of every cached file, which also catches
// editors that replace a file by rename. Entries with unsaved writes are never
// reloaded; the cache stays authoritative for them.
type Watcher struct {
	mu sync.Mutex

	registry *Registry
	fsw      *fsnotify.Watcher
	logger   *slog.Logger

	// dirs holds the directories already added to fsw.
	dirs map[string]bool

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching the files of every entry the registry loads from
// now on, plus the entries already cached.
func NewWatcher(r *Registry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		registry: r,
		fsw:      fsw,
		logger:   r.logger.With(slog.String("component", "watcher")),
		dirs:     make(map[string]bool),
		closeCh:  make(chan struct{}),
	}

	r.setLoadHook(func(path string) {
		if err := w.Track(path); err != nil {
			w.logger.Warn("cannot watch ini file", slog.String("path", path), slog.Any("error", err))
		}
	})
	for _, path := range r.Paths() {
		if err := w.Track(path); err != nil {
			w.logger.Warn("cannot watch ini file", slog.String("path", path), slog.Any("error", err))
		}
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Track adds the directory containing path to the watch list.
// Directories that do not exist yet are skipped without error.
func (w *Watcher) Track(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	dir := filepath.Dir(path)
	if w.dirs[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	w.dirs[dir] = true
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.registry.setLoadHook(nil)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

// handleEvent reloads the entry for the changed file, if one is cached.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	if ev.Op&relevant == 0 {
		return
	}

	path := filepath.Clean(ev.Name)
	if !w.registry.Has(path) {
		return
	}
	if w.registry.Reload(path) {
		w.logger.Debug("reloaded after external change", slog.String("path", path), slog.String("op", ev.Op.String()))
	}
}
