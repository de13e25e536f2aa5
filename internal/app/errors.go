package app

import "errors"

// Application errors.
var (
	// ErrShutdown indicates the application has already been shut down.
	ErrShutdown = errors.New("application shut down")

	// ErrNoScripts indicates RunScripts was called without any script.
	ErrNoScripts = errors.New("no scripts given")
)

// InitError represents an initialization error.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}
