// Package engine hosts the embedded pattern language interpreter.
//
// The interpreter is reached through a Runtime, a narrow ABI of linear
// memory operations and entry points (malloc, free, setData,
// executePatternLanguageCode, getConsoleResult, getUIConfig). Two runtimes
// exist: package wasm instantiates the compiled interpreter module and
// package lua provides a built-in engine with the same ABI.
//
// A Bridge owns the single Runtime of a session. It guarantees that:
//   - no call reaches the runtime before initialization completed
//   - calls never interleave
//   - every allocation it makes is freed exactly once
//   - strings read from runtime memory are copied before the next call
//
// Typical use:
//
//	bridge := engine.NewBridge(runtime, engine.Options{Logger: logger})
//	bridge.Start(ctx)
//	if err := bridge.LoadBinaryData(ctx, data); err != nil { ... }
//	result, err := bridge.Execute(ctx, source)
package engine
