// Package wasm hosts the compiled pattern language module on wazero.
//
// The module is instantiated with WASI preview1 and the emscripten host
// functions it imports. Its stdout and stderr become log records, and an
// optional directory is mounted read-only at /sources so #include directives
// resolve. Runtime implements engine.Runtime by calling the module's exports
// directly; strings read back from the module alias linear memory and are
// only valid until the next call.
package wasm
