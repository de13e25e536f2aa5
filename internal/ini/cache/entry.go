package cache

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dshills/papyrusini/internal/ini/flatfile"
)

// Entry is the in-memory copy of one INI file.
//
// An Entry is only reachable through Registry.Do and Registry.DoIfPresent,
// which hold the entry lock for the duration of the callback. Its methods
// therefore do no locking of their own, and a callback must not keep the
// pointer after it returns.
type Entry struct {
	path    string
	doc     *flatfile.Document
	dirty   bool
	backend *flatfile.Backend
	logger  *slog.Logger

	// mu serializes every access to this entry.
	mu sync.Mutex
	// closed is set once the entry has been flushed and evicted.
	closed bool
}

func newEntry(path string, backend *flatfile.Backend, logger *slog.Logger) *Entry {
	return &Entry{
		path:    path,
		backend: backend,
		logger:  logger.With(slog.String("path", path)),
	}
}

// load replaces the entry content with the file on disk. A missing file gives
// an empty entry; an unreadable or corrupt one is logged and also gives an
// empty entry.
func (e *Entry) load() {
	doc, err := e.backend.Load(e.path)
	e.doc = doc
	e.dirty = false

	switch {
	case err != nil:
		var perr *flatfile.ParseError
		if errors.As(err, &perr) {
			e.logger.Error("failed to parse ini file, check that it is not protected or corrupted", slog.Any("error", err))
		} else {
			e.logger.Error("failed to read ini file", slog.Any("error", err))
		}
	case !e.backend.Exists(e.path):
		e.logger.Info("ini file does not exist, default values will be used")
	default:
		e.logger.Debug("loaded ini file", slog.Int("keys", doc.Len()))
	}
}

// Path returns the file path this entry mirrors.
func (e *Entry) Path() string {
	return e.path
}

// Dirty reports whether the entry has writes that are not yet on disk.
func (e *Entry) Dirty() bool {
	return e.dirty
}

// Lookup returns the stored text for section/key and whether it exists.
func (e *Entry) Lookup(section, key string) (string, bool) {
	return e.doc.Lookup(section, key)
}

// Read returns the stored text for section/key, or def if it is absent.
func (e *Entry) Read(section, key, def string) string {
	v := e.doc.Get(section, key, def)
	e.logger.Debug("read cache", slog.String("section", section), slog.String("key", key), slog.String("value", v))
	return v
}

// Write stores text at section/key and marks the entry dirty, even when the
// new text equals the old one.
func (e *Entry) Write(section, key, text string) {
	e.logger.Debug("write cache", slog.String("section", section), slog.String("key", key), slog.String("value", text))
	e.doc.Set(section, key, text)
	e.dirty = true
}

// Save writes the entry to disk if it is dirty. On failure the entry stays
// dirty so a later Save can retry.
func (e *Entry) Save() error {
	if !e.dirty {
		e.logger.Debug("save cache: no changes")
		return nil
	}

	if err := e.backend.Save(e.path, e.doc); err != nil {
		e.logger.Error("failed to save ini file, check that it is not protected or read-only", slog.Any("error", err))
		return err
	}

	e.dirty = false
	e.logger.Info("saved ini file")
	return nil
}
