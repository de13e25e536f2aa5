// Package api provides the Lua modules exposed to settings scripts.
//
// Two modules share one function set and differ only in how they reach the
// disk:
//
//   - PapyrusIni: direct access. Writes go to the file immediately and reads
//     see the file, or the cached copy when the file is buffered.
//   - BufferedIni: cached access. Writes stay in memory until the buffer is
//     written or closed.
//
// For each type T in Int, Float, Bool and String both modules provide:
//
//	WriteT(file, "key:section", value)
//	ReadT(file, "key:section", default)          -> value
//	HasT(file, "key:section")                    -> bool
//	ReadTEx(defaults, user, "key:section", default) -> value
//
// ReadString and ReadStringEx take an optional trailing buffer size that caps
// the length of the returned text. BufferedIni adds CreateBuffer, WriteBuffer
// and CloseBuffer; PapyrusIni adds GetPluginVersion.
//
// Arguments are coerced the way the game's script engine passes them: a
// missing or mistyped argument becomes the zero value of its type. No
// function raises a Lua error.
//
//	local ini = require("BufferedIni")
//	ini.CreateBuffer("MyMod/settings.ini")
//	local difficulty = ini.ReadIntEx("MyMod/defaults.ini", "MyMod/settings.ini", "Difficulty:Gameplay", 2)
//	ini.WriteBool("MyMod/settings.ini", "Seen:Intro", true)
//	ini.CloseBuffer("MyMod/settings.ini")
package api
