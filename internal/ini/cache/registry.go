// Package cache keeps INI documents in memory between an explicit open and
// close, deferring disk writes until the document is flushed.
//
// The Registry maps each file path to one Entry. Entries are created lazily on
// first access, live until closed, and are written back only when dirty.
// Every operation on a path, cached or direct, runs under that path's lock, so
// a direct load-modify-save of a file can never interleave with a flush of the
// same file. Paths are spread over a fixed set of lock shards.
package cache

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/papyrusini/internal/ini/flatfile"
)

// pathLockShards is the number of path lock shards.
const pathLockShards = 64

// Registry owns every cached Entry.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry

	// pathLocks serialize all I/O on a path. Lock order is path lock, then
	// mu, then the entry lock.
	pathLocks [pathLockShards]sync.Mutex

	backend *flatfile.Backend
	logger  *slog.Logger

	// onLoad is called with the path of every newly loaded entry.
	onLoad func(path string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used by the registry and its entries.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an empty registry over the given backend.
func New(backend *flatfile.Backend, opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "cache"))
	return r
}

// Has reports whether an entry for path is currently cached. It never
// touches the disk.
func (r *Registry) Has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[path]
	return ok
}

// Len returns the number of cached entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Paths returns the cached paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, 0, len(r.entries))
	for p := range r.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Do runs fn with the entry for path, loading the file into a new entry
// first if none exists. The entry is locked while fn runs.
func (r *Registry) Do(path string, fn func(e *Entry)) {
	unlock := r.lockPath(path)
	defer unlock()

	e := r.acquire(path, true)
	defer e.mu.Unlock()
	fn(e)
}

// DoIfPresent runs fn with the entry for path only if one is cached.
// It reports whether fn was called.
func (r *Registry) DoIfPresent(path string, fn func(e *Entry)) bool {
	unlock := r.lockPath(path)
	defer unlock()

	e := r.acquire(path, false)
	if e == nil {
		return false
	}
	defer e.mu.Unlock()
	fn(e)
	return true
}

// Exclusive runs fn holding the lock for path. e is the cached entry, locked,
// or nil when path is not cached; fn may read or write the file itself without
// racing a flush, a close or another Exclusive call on the same path.
func (r *Registry) Exclusive(path string, fn func(e *Entry)) {
	unlock := r.lockPath(path)
	defer unlock()

	e := r.acquire(path, false)
	if e != nil {
		defer e.mu.Unlock()
	}
	fn(e)
}

// Open makes sure an entry for path is cached.
func (r *Registry) Open(path string) {
	r.Do(path, func(*Entry) {})
}

// Flush saves the entry for path if it is cached and dirty, keeping it cached.
func (r *Registry) Flush(path string) error {
	var err error
	r.DoIfPresent(path, func(e *Entry) {
		err = e.Save()
	})
	return err
}

// Close saves the entry for path if it is dirty and removes it from the
// registry. Closing a path with no entry does nothing. If the save fails the
// entry stays cached and dirty so a later Flush or Close can retry.
func (r *Registry) Close(path string) error {
	unlock := r.lockPath(path)
	defer unlock()

	e := r.acquire(path, false)
	if e == nil {
		r.logger.Debug("close: no cached entry", slog.String("path", path))
		return nil
	}
	defer e.mu.Unlock()

	if err := e.Save(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.entries[path] == e {
		delete(r.entries, path)
	}
	r.mu.Unlock()

	e.closed = true
	e.doc = nil
	r.logger.Debug("closed cache entry", slog.String("path", path))
	return nil
}

// CloseAll closes every cached entry, saving dirty ones concurrently.
// All save failures are returned together; entries that failed stay cached.
func (r *Registry) CloseAll(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range r.Paths() {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.Close(path); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// Reload re-reads a cached entry from disk. Dirty entries are left untouched
// so unsaved writes are never lost. It reports whether the entry was reloaded.
func (r *Registry) Reload(path string) bool {
	reloaded := false
	r.DoIfPresent(path, func(e *Entry) {
		if e.dirty {
			e.logger.Debug("reload skipped: entry has unsaved changes")
			return
		}
		doc, err := r.backend.Load(path)
		if err != nil {
			e.logger.Warn("reload failed, keeping cached content", slog.Any("error", err))
			return
		}
		e.doc = doc
		reloaded = true
		e.logger.Debug("reloaded cache entry")
	})
	return reloaded
}

func (r *Registry) lockPath(path string) (unlock func()) {
	l := &r.pathLocks[xxh3.HashString(path)%pathLockShards]
	l.Lock()
	return l.Unlock
}

// setLoadHook installs a callback for newly loaded entries.
func (r *Registry) setLoadHook(fn func(path string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onLoad = fn
}

// acquire returns the locked entry for path. When create is set a missing
// entry is inserted and loaded under its own lock, so concurrent callers for
// the same path wait for the load while other paths proceed. Callers that
// were waiting on an entry that got closed retry the lookup.
func (r *Registry) acquire(path string, create bool) *Entry {
	for {
		r.mu.Lock()
		e, ok := r.entries[path]
		if !ok {
			if !create {
				r.mu.Unlock()
				return nil
			}
			e = newEntry(path, r.backend, r.logger)
			e.mu.Lock()
			r.entries[path] = e
			hook := r.onLoad
			r.mu.Unlock()

			e.load()
			if hook != nil {
				hook(path)
			}
			return e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if !e.closed {
			return e
		}
		e.mu.Unlock()
	}
}
