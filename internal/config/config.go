package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/dshills/papyrusini/internal/config/loader"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "PAPYRUSINI_"

// Config is the runtime configuration.
type Config struct {
	// DataDir is the directory relative INI paths resolve against.
	DataDir string `toml:"data_dir" yaml:"data_dir"`
	// Watch reloads clean cached files when they change on disk.
	Watch bool `toml:"watch" yaml:"watch"`

	Log    LogConfig    `toml:"log" yaml:"log"`
	Script ScriptConfig `toml:"script" yaml:"script"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn (or warning) or error, in any case.
	Level string `toml:"level" yaml:"level"`
	// File, when set, receives JSON logs in addition to stderr.
	File string `toml:"file" yaml:"file"`
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `toml:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files kept. 0 keeps all of them.
	MaxBackups int `toml:"max_backups" yaml:"max_backups"`
}

// ScriptConfig configures script execution.
type ScriptConfig struct {
	// Timeout bounds a single script run, as a Go duration. "0" disables it.
	Timeout string `toml:"timeout" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: "Data",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Script: ScriptConfig{
			Timeout: "30s",
		},
	}
}

// envMapping binds environment variables to setting paths.
func envMapping() map[string]string {
	return map[string]string{
		EnvPrefix + "DATA_DIR":       "data_dir",
		EnvPrefix + "WATCH":          "watch",
		EnvPrefix + "LOG_LEVEL":      "log.level",
		EnvPrefix + "LOG_FILE":       "log.file",
		EnvPrefix + "SCRIPT_TIMEOUT": "script.timeout",
	}
}

// Load reads the configuration from path on the OS file system.
// An empty path skips the file step.
func Load(path string) (*Config, error) {
	return LoadFS(afero.NewOsFs(), path)
}

// LoadFS reads the configuration from path on fs, applies environment
// overrides and validates the result.
func LoadFS(fs afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		l, err := loader.ForPath(fs, path)
		if err != nil {
			return nil, err
		}
		found, err := l.Load(cfg)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
	}

	env, unknown := loader.NewEnvLoader(EnvPrefix, envMapping()).Load()
	for _, name := range unknown {
		slog.Warn("ignoring unknown environment variable", slog.String("name", name))
	}
	for p, raw := range env {
		if err := cfg.set(p, raw); err != nil {
			return nil, err
		}
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) set(path, raw string) error {
	switch path {
	case "data_dir":
		c.DataDir = raw
	case "watch":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return &ValidationError{Path: path, Message: "not a boolean", Value: raw}
		}
		c.Watch = b
	case "log.level":
		c.Log.Level = raw
	case "log.file":
		c.Log.File = raw
	case "script.timeout":
		c.Script.Timeout = raw
	default:
		return &ValidationError{Path: path, Message: "unknown setting", Value: raw}
	}
	return nil
}

// KnownLogLevel reports whether s names a log level, ignoring case.
func KnownLogLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, &ValidationError{Path: "data_dir", Message: "must not be empty", Value: c.DataDir})
	}

	if !KnownLogLevel(c.Log.Level) {
		errs = append(errs, &ValidationError{Path: "log.level", Message: "unknown level", Value: c.Log.Level})
	}

	if c.Log.MaxSizeMB < 0 {
		errs = append(errs, &ValidationError{Path: "log.max_size_mb", Message: "must not be negative", Value: c.Log.MaxSizeMB})
	}
	if c.Log.MaxBackups < 0 {
		errs = append(errs, &ValidationError{Path: "log.max_backups", Message: "must not be negative", Value: c.Log.MaxBackups})
	}

	if _, err := c.ScriptTimeout(); err != nil {
		errs = append(errs, &ValidationError{Path: "script.timeout", Message: err.Error(), Value: c.Script.Timeout})
	}

	return errors.Join(errs...)
}

// ScriptTimeout returns the parsed script timeout.
func (c *Config) ScriptTimeout() (time.Duration, error) {
	if c.Script.Timeout == "" || c.Script.Timeout == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Script.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("must not be negative")
	}
	return d, nil
}

func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = loader.ExpandEnvInString(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
