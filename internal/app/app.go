// Package app wires configuration, logging, the INI store and the script
// host together and manages their lifecycle.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/dshills/papyrusini/internal/config"
	"github.com/dshills/papyrusini/internal/ini/cache"
	"github.com/dshills/papyrusini/internal/ini/flatfile"
	"github.com/dshills/papyrusini/internal/ini/store"
	"github.com/dshills/papyrusini/internal/logging"
	"github.com/dshills/papyrusini/internal/plugin"
)

// shutdownTimeout bounds flushing cached files on Shutdown when the caller's
// context has no deadline.
const shutdownTimeout = 10 * time.Second

// Application owns every long-lived component.
type Application struct {
	mu sync.Mutex

	config   *config.Config
	logger   *slog.Logger
	closeLog func() error

	backend  *flatfile.Backend
	registry *cache.Registry
	store    *store.Store
	watcher  *cache.Watcher
	host     *plugin.Host

	shutdown bool

	opts Options
}

// Options configures the application. Zero values defer to the config file.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// DataDir overrides the configured data directory.
	DataDir string

	// LogLevel overrides the configured log level.
	LogLevel string

	// Watch enables file watching regardless of the config.
	Watch bool

	// Fs is the file system for the config file and INI files.
	// Nil means the OS file system.
	Fs afero.Fs

	// Stderr receives text logs. Nil means os.Stderr.
	Stderr io.Writer
}

// New loads the configuration and builds every component.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	osBacked := app.opts.Fs == nil
	fs := app.opts.Fs
	if osBacked {
		fs = afero.NewOsFs()
	}

	// 1. Config
	cfg, err := config.LoadFS(fs, app.opts.ConfigPath)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	if app.opts.DataDir != "" {
		cfg.DataDir = app.opts.DataDir
	}
	if app.opts.LogLevel != "" {
		cfg.Log.Level = app.opts.LogLevel
	}
	if app.opts.Watch {
		cfg.Watch = true
	}
	if err := cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.config = cfg

	// 2. Logging
	stderr := app.opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger, closeLog := logging.New(cfg.Log, stderr)
	app.logger = logger.With(slog.String("session", uuid.NewString()))
	app.closeLog = closeLog

	// 3. INI storage
	app.backend = flatfile.New(fs)
	app.registry = cache.New(app.backend, cache.WithLogger(app.logger))
	app.store = store.New(app.registry, app.backend,
		store.WithDataDir(cfg.DataDir),
		store.WithLogger(app.logger),
	)

	// 4. Watcher
	if cfg.Watch {
		if osBacked {
			w, err := cache.NewWatcher(app.registry)
			if err != nil {
				_ = app.closeLog()
				return &InitError{Component: "watcher", Err: err}
			}
			app.watcher = w
		} else {
			app.logger.Warn("file watching needs the OS file system; disabled")
		}
	}

	// 5. Script host
	timeout, _ := cfg.ScriptTimeout()
	host, err := plugin.NewHost(app.store,
		plugin.WithHostLogger(app.logger),
		plugin.WithHostExecutionTimeout(timeout),
	)
	if err != nil {
		app.closeWatcher()
		_ = app.closeLog()
		return &InitError{Component: "script host", Err: err}
	}
	app.host = host

	app.logger.Debug("application initialized",
		slog.String("data_dir", app.store.DataDir()),
		slog.Bool("watch", app.watcher != nil),
		slog.Duration("script_timeout", timeout),
	)
	return nil
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger {
	return app.logger
}

// Store returns the INI store.
func (app *Application) Store() *store.Store {
	return app.store
}

// RunScripts runs each script in order. A failing script doesn't stop the
// ones after it; all failures are returned together.
func (app *Application) RunScripts(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return ErrNoScripts
	}

	app.mu.Lock()
	closed := app.shutdown
	app.mu.Unlock()
	if closed {
		return ErrShutdown
	}

	var result *multierror.Error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		if err := app.host.RunFile(ctx, path); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Shutdown stops the watcher, flushes every cached file and closes the log
// file. Calling it more than once is a no-op.
func (app *Application) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	if app.shutdown {
		app.mu.Unlock()
		return nil
	}
	app.shutdown = true
	app.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}

	var result *multierror.Error

	app.closeWatcher()

	if err := app.host.Close(ctx); err != nil {
		app.logger.Error("flushing ini files failed", slog.Any("error", err))
		result = multierror.Append(result, err)
	}

	app.logger.Debug("application shut down")
	if err := app.closeLog(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

func (app *Application) closeWatcher() {
	if app.watcher == nil {
		return
	}
	if err := app.watcher.Close(); err != nil {
		app.logger.Warn("closing watcher failed", slog.Any("error", err))
	}
	app.watcher = nil
}
