// Package lua runs settings scripts on a sandboxed gopher-lua state.
//
// # State
//
// A State opens only the base, package, table, string and math libraries:
//
//	state, err := lua.NewState(
//	    lua.WithExecutionTimeout(10 * time.Second),
//	    lua.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	state.RegisterModule("PapyrusIni", funcs)
//	if err := state.DoFile(ctx, "settings.lua"); err != nil {
//	    return err
//	}
//
// Each DoFile or DoString call runs under the caller's context, bounded by the
// execution timeout. A script that runs too long fails with
// ErrExecutionTimeout.
//
// # Sandbox
//
// The Sandbox removes the chunk loaders (dofile, loadfile, load, loadstring),
// routes print to the logger, and limits require to the string, table and
// math libraries plus modules added with RegisterModule.
package lua
