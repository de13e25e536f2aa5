package loader

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// TOMLLoader loads configuration from TOML files.
type TOMLLoader struct {
	fs   afero.Fs
	path string
}

// NewTOMLLoader creates a TOML loader for path on fs.
func NewTOMLLoader(fs afero.Fs, path string) *TOMLLoader {
	return &TOMLLoader{
		fs:   fs,
		path: path,
	}
}

// Load decodes the configured file into v.
func (l *TOMLLoader) Load(v any) (bool, error) {
	data, err := readFile(l.fs, l.path)
	if err != nil || data == nil {
		return false, err
	}
	return true, l.decode(l.path, bytes.NewReader(data), v)
}

// LoadFromReader decodes TOML from r into v.
func (l *TOMLLoader) LoadFromReader(r io.Reader, v any) error {
	return l.decode("<reader>", r, v)
}

// decode rejects keys that don't map onto a field of v.
func (l *TOMLLoader) decode(source string, r io.Reader, v any) error {
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(v)
	if err == nil {
		return nil
	}

	perr := &ParseError{Path: source, Message: err.Error(), Err: err}

	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		perr.Line, perr.Column = decodeErr.Position()
	}
	var strictErr *toml.StrictMissingError
	if errors.As(err, &strictErr) && len(strictErr.Errors) > 0 {
		perr.Line, perr.Column = strictErr.Errors[0].Position()
		perr.Message = "unknown key " + strings.Join(strictErr.Errors[0].Key(), ".")
	}
	return perr
}
