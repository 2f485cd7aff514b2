// Package lua hosts the pattern engine on an embedded Lua interpreter.
//
// Runtime implements engine.Runtime over a simulated linear memory (Heap), so
// the bridge drives it through the same allocate, write, execute and read
// sequence it uses for the compiled module. Programs run in a fresh sandboxed
// state per execution with a small API:
//
//	log.debug/info/warn/error(...)   console entries
//	print(...)                       alias for log.info
//	data.size() / data.read(off, n)  loaded binary data
//	data.u8/u16/u32/i8/i16/i32(off [, "be"])
//	property(category, name, kind [, size | fields])
//
// Properties registered by the program become the UI descriptor returned by
// getUIConfig.
package lua
