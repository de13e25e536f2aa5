package loader

import (
	"bytes"
	"errors"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct {
	fs   afero.Fs
	path string
}

// NewYAMLLoader creates a YAML loader for path on fs.
func NewYAMLLoader(fs afero.Fs, path string) *YAMLLoader {
	return &YAMLLoader{
		fs:   fs,
		path: path,
	}
}

// Load decodes the configured file into v.
func (l *YAMLLoader) Load(v any) (bool, error) {
	data, err := readFile(l.fs, l.path)
	if err != nil || data == nil {
		return false, err
	}
	return true, l.decode(l.path, bytes.NewReader(data), v)
}

// LoadFromReader decodes YAML from r into v.
func (l *YAMLLoader) LoadFromReader(r io.Reader, v any) error {
	return l.decode("<reader>", r, v)
}

func (l *YAMLLoader) decode(source string, r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		// An empty document leaves v untouched.
		return nil
	}
	return &ParseError{Path: source, Message: err.Error(), Err: err}
}
