// Package store is the typed entry point for reading and writing INI
// settings.
//
// Every operation takes a useCache flag. Cached operations go through the
// cache registry and reach the disk only when the file is flushed or closed.
// Direct operations touch the file immediately, but stay coherent with the
// cache: a direct write also updates an existing cache entry, and a direct
// read is served by the cache whenever an entry for the file exists.
//
// Failures never reach the caller. Malformed addresses, unreadable files and
// values that do not decode are logged and turn into no-ops or defaults.
package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/papyrusini/internal/ini/address"
	"github.com/dshills/papyrusini/internal/ini/cache"
	"github.com/dshills/papyrusini/internal/ini/flatfile"
	"github.com/dshills/papyrusini/internal/ini/value"
)

// Store reads and writes typed settings in INI files below a data directory.
// It is safe for concurrent use.
type Store struct {
	registry *cache.Registry
	backend  *flatfile.Backend
	dataDir  string
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDataDir sets the directory relative file names are resolved against.
// It defaults to the working directory.
func WithDataDir(dir string) Option {
	return func(s *Store) {
		s.dataDir = dir
	}
}

// New creates a store. The registry and backend must share the same file
// system so cached and direct access see the same files.
func New(registry *cache.Registry, backend *flatfile.Backend, opts ...Option) *Store {
	s := &Store{
		registry: registry,
		backend:  backend,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "store"))
	return s
}

// Registry returns the cache registry backing the store.
func (s *Store) Registry() *cache.Registry {
	return s.registry
}

// DataDir returns the directory relative file names are resolved against.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Resolve maps a file name to the path used as the cache identity.
// Backslashes are treated as separators, relative names are joined to the
// data directory, and the result is cleaned and made absolute.
func (s *Store) Resolve(file string) string {
	p := filepath.FromSlash(strings.ReplaceAll(file, `\`, "/"))
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.dataDir, p)
	}
	p = filepath.Clean(p)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

// Write stores v at section/key of file.
func (s *Store) Write(file, section, key string, v value.Value, useCache bool) {
	addr, err := address.New(section, key)
	if err != nil {
		s.logger.Warn("write ignored", slog.String("file", file), slog.Any("error", err))
		return
	}
	s.write(s.Resolve(file), addr, v, useCache)
}

// Read returns the value at section/key of file decoded as def's kind, or def
// when the key is missing or does not decode.
func (s *Store) Read(file, section, key string, def value.Value, useCache bool) value.Value {
	addr, err := address.New(section, key)
	if err != nil {
		s.logger.Warn("read returns default", slog.String("file", file), slog.Any("error", err))
		return def
	}
	return s.read(s.Resolve(file), addr, def, useCache)
}

// Has reports whether section/key exists in file and its text decodes as kind.
func (s *Store) Has(file, section, key string, kind value.Kind, useCache bool) bool {
	addr, err := address.New(section, key)
	if err != nil {
		s.logger.Warn("has returns false", slog.String("file", file), slog.Any("error", err))
		return false
	}
	return s.has(s.Resolve(file), addr, kind, useCache)
}

// ReadEx reads a setting from a user file, falling back to a defaults file.
//
// If the defaults file lacks the key, def is written there first. The value
// from the defaults file then serves as the default for the read from the
// user file.
func (s *Store) ReadEx(fileDefault, fileUser, section, key string, def value.Value, useCache bool) value.Value {
	addr, err := address.New(section, key)
	if err != nil {
		s.logger.Warn("read returns default", slog.String("file", fileUser), slog.Any("error", err))
		return def
	}
	return s.readEx(s.Resolve(fileDefault), s.Resolve(fileUser), addr, def, useCache)
}

// WriteSetting is Write with a "key:section" setting name.
func (s *Store) WriteSetting(file, settingName string, v value.Value, useCache bool) {
	addr, ok := s.parse(file, settingName)
	if !ok {
		return
	}
	s.write(s.Resolve(file), addr, v, useCache)
}

// ReadSetting is Read with a "key:section" setting name.
func (s *Store) ReadSetting(file, settingName string, def value.Value, useCache bool) value.Value {
	addr, ok := s.parse(file, settingName)
	if !ok {
		return def
	}
	return s.read(s.Resolve(file), addr, def, useCache)
}

// HasSetting is Has with a "key:section" setting name.
func (s *Store) HasSetting(file, settingName string, kind value.Kind, useCache bool) bool {
	addr, ok := s.parse(file, settingName)
	if !ok {
		return false
	}
	return s.has(s.Resolve(file), addr, kind, useCache)
}

// ReadSettingEx is ReadEx with a "key:section" setting name.
func (s *Store) ReadSettingEx(fileDefault, fileUser, settingName string, def value.Value, useCache bool) value.Value {
	addr, ok := s.parse(fileUser, settingName)
	if !ok {
		return def
	}
	return s.readEx(s.Resolve(fileDefault), s.Resolve(fileUser), addr, def, useCache)
}

// Open loads file into the cache if it is not cached yet.
func (s *Store) Open(file string) {
	s.registry.Open(s.Resolve(file))
}

// Flush writes the cached copy of file to disk if it has unsaved changes.
func (s *Store) Flush(file string) error {
	return s.registry.Flush(s.Resolve(file))
}

// Close flushes the cached copy of file and drops it from the cache.
func (s *Store) Close(file string) error {
	return s.registry.Close(s.Resolve(file))
}

// CloseAll flushes and drops every cached file.
func (s *Store) CloseAll(ctx context.Context) error {
	return s.registry.CloseAll(ctx)
}

func (s *Store) parse(file, settingName string) (address.Address, bool) {
	addr, err := address.Parse(settingName)
	if err != nil {
		s.logger.Warn("invalid setting name",
			slog.String("file", file),
			slog.String("setting", settingName),
			slog.Any("error", err))
		return address.Address{}, false
	}
	return addr, true
}

func (s *Store) write(path string, addr address.Address, v value.Value, useCache bool) {
	text := value.Encode(v)

	if useCache {
		s.registry.Do(path, func(e *cache.Entry) {
			e.Write(addr.Section, addr.Key, text)
		})
		return
	}

	var err error
	s.registry.Exclusive(path, func(e *cache.Entry) {
		if e != nil {
			e.Write(addr.Section, addr.Key, text)
		}
		err = s.backend.Set(path, addr.Section, addr.Key, text)
	})
	if err != nil {
		s.logger.Error("direct write failed",
			slog.String("path", path),
			slog.String("setting", addr.CacheKey()),
			slog.Any("error", err))
	}
}

func (s *Store) read(path string, addr address.Address, def value.Value, useCache bool) value.Value {
	text, ok := s.lookup(path, addr, useCache)
	if !ok {
		return def
	}
	return value.Decode(text, def)
}

func (s *Store) has(path string, addr address.Address, kind value.Kind, useCache bool) bool {
	text, ok := s.lookup(path, addr, useCache)
	return ok && value.Parses(kind, text)
}

func (s *Store) readEx(pathDefault, pathUser string, addr address.Address, def value.Value, useCache bool) value.Value {
	if !s.has(pathDefault, addr, def.Kind(), useCache) {
		s.logger.Debug("seeding defaults file",
			slog.String("path", pathDefault),
			slog.String("setting", addr.SettingName()),
			slog.String("value", def.String()))
		s.write(pathDefault, addr, def, useCache)
	}
	eff := s.read(pathDefault, addr, def, useCache)
	return s.read(pathUser, addr, eff, useCache)
}

// lookup returns the raw text at addr. Cached lookups create the entry.
// Direct lookups use the entry when one exists and the file otherwise.
func (s *Store) lookup(path string, addr address.Address, useCache bool) (string, bool) {
	var (
		text string
		ok   bool
		err  error
	)

	if useCache {
		s.registry.Do(path, func(e *cache.Entry) {
			text, ok = e.Lookup(addr.Section, addr.Key)
		})
		return text, ok
	}

	s.registry.Exclusive(path, func(e *cache.Entry) {
		if e != nil {
			text, ok = e.Lookup(addr.Section, addr.Key)
			return
		}
		text, ok, err = s.backend.Lookup(path, addr.Section, addr.Key)
	})
	if err != nil {
		s.logger.Error("direct read failed",
			slog.String("path", path),
			slog.String("setting", addr.CacheKey()),
			slog.Any("error", err))
		return "", false
	}
	return text, ok
}

// Truncate cuts text to at most maxLen bytes without splitting a grapheme
// cluster. A maxLen of zero or less leaves text unchanged.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	n, state := 0, -1
	rest := text
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if n+len(cluster) > maxLen {
			break
		}
		n += len(cluster)
	}
	return text[:n]
}
