package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dshills/papyrusini/internal/ini/store"
	"github.com/dshills/papyrusini/internal/plugin/api"
	plua "github.com/dshills/papyrusini/internal/plugin/lua"
)

// Host runs settings scripts against a store. Each script gets a fresh Lua
// state with the INI modules injected, so globals never leak between scripts;
// the store and its cache are shared.
type Host struct {
	mu sync.Mutex

	store  *store.Store
	api    *api.Registry
	logger *slog.Logger

	executionTimeout time.Duration

	closed bool
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostExecutionTimeout sets the execution timeout for each script.
func WithHostExecutionTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		h.executionTimeout = d
	}
}

// WithHostLogger sets the host logger.
func WithHostLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHost creates a script host for st.
func NewHost(st *store.Store, opts ...HostOption) (*Host, error) {
	if st == nil {
		return nil, ErrNilStore
	}

	reg, err := api.DefaultRegistry(st)
	if err != nil {
		return nil, err
	}

	h := &Host{
		store:            st,
		api:              reg,
		logger:           slog.Default(),
		executionTimeout: plua.DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(slog.String("component", "host"))

	return h, nil
}

// Modules returns the names of the modules scripts can use.
func (h *Host) Modules() []string {
	return h.api.List()
}

// RunFile runs the script at path.
func (h *Host) RunFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrScriptNotFound, path)
		}
		return fmt.Errorf("%w: %s: %w", ErrScriptFailed, path, err)
	}
	return h.run(ctx, path, func(state *plua.State) error {
		return state.DoFile(ctx, path)
	})
}

// RunString runs code as a script called name.
func (h *Host) RunString(ctx context.Context, name, code string) error {
	return h.run(ctx, name, func(state *plua.State) error {
		return state.DoString(ctx, code)
	})
}

func (h *Host) run(ctx context.Context, name string, fn func(*plua.State) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}

	logger := h.logger.With(slog.String("script", name))

	state, err := plua.NewState(
		plua.WithExecutionTimeout(h.executionTimeout),
		plua.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrScriptFailed, name, err)
	}
	defer state.Close()

	h.api.InjectAll(state)

	start := time.Now()
	logger.Debug("running script")
	if err := fn(state); err != nil {
		logger.Error("script failed", slog.Any("error", err))
		return fmt.Errorf("%w: %s: %w", ErrScriptFailed, name, err)
	}
	logger.Info("script finished", slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Close stops the host from running further scripts and flushes every
// buffered file.
func (h *Host) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	return h.store.CloseAll(ctx)
}
