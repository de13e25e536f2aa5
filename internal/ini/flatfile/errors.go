package flatfile

import (
	"errors"
	"fmt"
)

// ErrSave wraps every failure to persist a document.
var ErrSave = errors.New("failed to save ini file")

// ParseError represents an error while parsing an INI file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
