package plugin

import "errors"

// Script host errors.
var (
	// ErrNilStore is returned when a host is created without a store.
	ErrNilStore = errors.New("store is nil")

	// ErrScriptNotFound is returned when a script file does not exist.
	ErrScriptNotFound = errors.New("script not found")

	// ErrScriptFailed wraps any error raised while loading or running a script.
	ErrScriptFailed = errors.New("script failed")

	// ErrHostClosed is returned when running a script on a closed host.
	ErrHostClosed = errors.New("host is closed")
)
