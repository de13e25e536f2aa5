// Package flatfile reads and writes whole INI documents and provides direct,
// uncached single-key access to INI files.
//
// A missing file is never an error: it loads as an empty document and direct
// reads of it return the caller's default.
package flatfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Backend performs INI file I/O on a file system.
type Backend struct {
	fs afero.Fs
}

// New creates a backend over the given file system.
func New(fs afero.Fs) *Backend {
	return &Backend{fs: fs}
}

// NewOS creates a backend over the operating system file system.
func NewOS() *Backend {
	return New(afero.NewOsFs())
}

// Fs returns the underlying file system.
func (b *Backend) Fs() afero.Fs {
	return b.fs
}

// Exists reports whether a regular file exists at path.
func (b *Backend) Exists(path string) bool {
	info, err := b.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads and parses the document at path.
//
// A missing file yields an empty document and a nil error. A file that cannot
// be read or parsed yields an empty document together with the error, so
// callers may log the failure and continue with defaults.
func (b *Backend) Load(path string) (*Document, error) {
	data, err := afero.ReadFile(b.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDocument(), nil
		}
		return NewDocument(), fmt.Errorf("reading ini file %s: %w", path, err)
	}

	doc, err := parseDocument(data)
	if err != nil {
		return NewDocument(), &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return doc, nil
}

// Save writes doc to path, creating the parent directory first.
func (b *Backend) Save(path string, doc *Document) error {
	if err := b.ensureParentDir(path); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return fmt.Errorf("encoding ini file %s: %w", path, err)
	}

	if err := afero.WriteFile(b.fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSave, path, err)
	}
	return nil
}

// Lookup reads a single key directly from the file at path.
// The error is non-nil only when the file exists but cannot be used.
func (b *Backend) Lookup(path, section, key string) (string, bool, error) {
	doc, err := b.Load(path)
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Lookup(section, key)
	return v, ok, nil
}

// Get reads a single key directly from the file at path, returning def when
// the file or key is missing or the file cannot be parsed.
func (b *Backend) Get(path, section, key, def string) (string, error) {
	v, ok, err := b.Lookup(path, section, key)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// Set writes a single key directly to the file at path, preserving every
// other key. A file that exists but cannot be parsed is left untouched.
func (b *Backend) Set(path, section, key, text string) error {
	doc, err := b.Load(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSave, path, err)
	}
	doc.Set(section, key, text)
	return b.Save(path, doc)
}

func (b *Backend) ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating directory %s: %w", ErrSave, dir, err)
	}
	return nil
}
