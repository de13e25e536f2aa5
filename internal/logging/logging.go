// Package logging builds the process logger.
//
// Records always go to a text handler on the given writer. When a log file
// is configured, the same records are also written as JSON to a rotating
// file.
package logging

import (
	"io"
	"log/slog"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dshills/papyrusini/internal/config"
)

// ParseLevel converts a level name to a slog.Level. Unknown names map to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger for cfg writing text records to w. The returned
// close function releases the log file, if any.
func New(cfg config.LogConfig, w io.Writer) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	text := slog.NewTextHandler(w, opts)

	if cfg.File == "" {
		return slog.New(text), func() error { return nil }
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	logger := slog.New(slogmulti.Fanout(
		text,
		slog.NewJSONHandler(file, opts),
	))
	return logger, file.Close
}
