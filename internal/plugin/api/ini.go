package api

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/papyrusini/internal/ini/store"
	"github.com/dshills/papyrusini/internal/ini/value"
)

// Module names.
const (
	PapyrusIni  = "PapyrusIni"
	BufferedIni = "BufferedIni"
)

// PluginVersion is reported by PapyrusIni.GetPluginVersion.
const PluginVersion = 1

// IniModule exposes typed INI settings to scripts.
type IniModule struct {
	name     string
	store    *store.Store
	useCache bool
}

// NewIniModule creates a module called name over st. When useCache is set,
// every function goes through the cache and the buffer lifecycle functions
// are included; otherwise files are accessed directly.
func NewIniModule(name string, st *store.Store, useCache bool) *IniModule {
	return &IniModule{
		name:     name,
		store:    st,
		useCache: useCache,
	}
}

// Name returns the module name.
func (m *IniModule) Name() string {
	return m.name
}

// Funcs returns the module functions. The typed functions are generated for
// every value kind.
func (m *IniModule) Funcs() map[string]lua.LGFunction {
	funcs := make(map[string]lua.LGFunction)

	for _, k := range value.Kinds {
		t := k.String()
		funcs["Write"+t] = m.write(k)
		funcs["Read"+t] = m.read(k)
		funcs["Has"+t] = m.has(k)
		funcs["Read"+t+"Ex"] = m.readEx(k)
	}

	if m.useCache {
		funcs["CreateBuffer"] = m.createBuffer
		funcs["WriteBuffer"] = m.writeBuffer
		funcs["CloseBuffer"] = m.closeBuffer
	} else {
		funcs["GetPluginVersion"] = getPluginVersion
	}

	return funcs
}

// Write<T>(file, setting, value)
func (m *IniModule) write(k value.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		file := argString(L, 1)
		setting := argString(L, 2)
		m.store.WriteSetting(file, setting, argValue(L, 3, k), m.useCache)
		return 0
	}
}

// Read<T>(file, setting, default [, bufferSize]) -> value
func (m *IniModule) read(k value.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		file := argString(L, 1)
		setting := argString(L, 2)
		v := m.store.ReadSetting(file, setting, argValue(L, 3, k), m.useCache)
		L.Push(m.result(L, v, 4))
		return 1
	}
}

// Has<T>(file, setting) -> bool
func (m *IniModule) has(k value.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		file := argString(L, 1)
		setting := argString(L, 2)
		L.Push(lua.LBool(m.store.HasSetting(file, setting, k, m.useCache)))
		return 1
	}
}

// Read<T>Ex(fileDefault, fileUser, setting, default [, bufferSize]) -> value
func (m *IniModule) readEx(k value.Kind) lua.LGFunction {
	return func(L *lua.LState) int {
		fileDefault := argString(L, 1)
		fileUser := argString(L, 2)
		setting := argString(L, 3)
		v := m.store.ReadSettingEx(fileDefault, fileUser, setting, argValue(L, 4, k), m.useCache)
		L.Push(m.result(L, v, 5))
		return 1
	}
}

// result converts v for return, truncating strings to the optional buffer
// size argument at position n.
func (m *IniModule) result(L *lua.LState, v value.Value, n int) lua.LValue {
	if v.Kind() == value.KindString {
		return lua.LString(store.Truncate(v.AsString(), int(argInt(L, n))))
	}
	return toLua(v)
}

// CreateBuffer(file)
func (m *IniModule) createBuffer(L *lua.LState) int {
	m.store.Open(argString(L, 1))
	return 0
}

// WriteBuffer(file) -> bool
func (m *IniModule) writeBuffer(L *lua.LState) int {
	L.Push(lua.LBool(m.store.Flush(argString(L, 1)) == nil))
	return 1
}

// CloseBuffer(file) -> bool
func (m *IniModule) closeBuffer(L *lua.LState) int {
	L.Push(lua.LBool(m.store.Close(argString(L, 1)) == nil))
	return 1
}

// GetPluginVersion() -> int
func getPluginVersion(L *lua.LState) int {
	L.Push(lua.LNumber(PluginVersion))
	return 1
}
