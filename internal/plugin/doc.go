// Package plugin runs Lua settings scripts against an INI store.
//
// A Host owns the module registry from package api and creates a sandboxed
// Lua state from package lua for every script it runs:
//
//	host, err := plugin.NewHost(st, plugin.WithHostLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer host.Close(ctx)
//
//	if err := host.RunFile(ctx, "scripts/settings.lua"); err != nil {
//	    return err
//	}
//
// Scripts see the PapyrusIni and BufferedIni modules as globals and through
// require. Closing the host flushes every file a script left buffered.
package plugin
