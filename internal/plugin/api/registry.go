package api

import (
	"fmt"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/papyrusini/internal/ini/store"
	plua "github.com/dshills/papyrusini/internal/plugin/lua"
)

// Module is a table of Go functions exposed to scripts under one name.
type Module interface {
	// Name returns the global and require name (e.g., "PapyrusIni").
	Name() string

	// Funcs returns the module functions keyed by their Lua name.
	Funcs() map[string]lua.LGFunction
}

// Registry manages API modules and their injection into Lua states.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates a new API registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]Module),
	}
}

// Register adds a module to the registry.
func (r *Registry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("module %q already registered", mod.Name())
	}

	r.modules[mod.Name()] = mod
	return nil
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mod, ok := r.modules[name]
	return mod, ok
}

// List returns all registered module names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InjectAll registers every module into the state.
func (r *Registry) InjectAll(state *plua.State) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, mod := range r.modules {
		state.RegisterModule(name, mod.Funcs())
	}
}

// DefaultRegistry creates a registry with the PapyrusIni and BufferedIni
// modules bound to st.
func DefaultRegistry(st *store.Store) (*Registry, error) {
	r := NewRegistry()

	modules := []Module{
		NewIniModule(PapyrusIni, st, false),
		NewIniModule(BufferedIni, st, true),
	}

	for _, mod := range modules {
		if err := r.Register(mod); err != nil {
			return nil, fmt.Errorf("failed to register module %q: %w", mod.Name(), err)
		}
	}

	return r, nil
}
