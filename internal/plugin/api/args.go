package api

import (
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/papyrusini/internal/ini/value"
)

// argString returns argument n as a string. Numbers are formatted; anything
// else, including a missing argument, is "".
func argString(L *lua.LState, n int) string {
	return lua.LVAsString(L.Get(n))
}

// argFloat returns argument n as a number. Numeric strings are parsed;
// anything else is 0.
func argFloat(L *lua.LState, n int) float64 {
	return float64(lua.LVAsNumber(L.Get(n)))
}

// argInt returns argument n truncated toward zero. Values outside the int64
// range are 0.
func argInt(L *lua.LState, n int) int64 {
	f := math.Trunc(argFloat(L, n))
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// argBool returns argument n with Lua truthiness: only nil and false are false.
func argBool(L *lua.LState, n int) bool {
	return lua.LVAsBool(L.Get(n))
}

// argValue returns argument n coerced to kind k.
func argValue(L *lua.LState, n int, k value.Kind) value.Value {
	switch k {
	case value.KindInt:
		return value.Int(argInt(L, n))
	case value.KindFloat:
		return value.Float(argFloat(L, n))
	case value.KindBool:
		return value.Bool(argBool(L, n))
	default:
		return value.String(argString(L, n))
	}
}

// toLua converts a value to its Lua representation.
func toLua(v value.Value) lua.LValue {
	switch v.Kind() {
	case value.KindInt:
		return lua.LNumber(v.AsInt())
	case value.KindFloat:
		return lua.LNumber(v.AsFloat())
	case value.KindBool:
		return lua.LBool(v.AsBool())
	default:
		return lua.LString(v.AsString())
	}
}
