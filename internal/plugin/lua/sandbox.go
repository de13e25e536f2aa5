package lua

import (
	"log/slog"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts a Lua state to pure computation plus the modules the
// host registers.
type Sandbox struct {
	L      *lua.LState
	logger *slog.Logger

	// allowed holds module names require may load besides the safe builtins.
	allowed map[string]bool
}

// safeModules are builtin libraries require may return.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// NewSandbox creates a sandbox for L. Script output from print goes to logger.
func NewSandbox(L *lua.LState, logger *slog.Logger) *Sandbox {
	return &Sandbox{
		L:       L,
		logger:  logger,
		allowed: make(map[string]bool),
	}
}

// Install sets up the sandbox restrictions.
func (s *Sandbox) Install() {
	// Chunk loaders can read arbitrary files or bypass the require whitelist.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "module"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installPrint()
	s.installSafeRequire()
}

// Allow lets require load the named module. The module must be preloaded.
func (s *Sandbox) Allow(name string) {
	s.allowed[name] = true
}

// installPrint routes print output to the logger.
func (s *Sandbox) installPrint() {
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.logger.Info(strings.Join(parts, "\t"), slog.String("source", "script"))
		return 0
	}))
}

// installSafeRequire clears the package search paths and replaces require
// with a version that only loads safe builtins and allowed preloaded modules.
func (s *Sandbox) installSafeRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if !safeModules[modName] && !s.allowed[modName] {
			L.RaiseError("module %q is not available", modName)
			return 0
		}

		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}
