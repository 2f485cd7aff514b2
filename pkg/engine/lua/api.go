package lua

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"patternweb/playground/pkg/engine"
)

// run is the per-execution environment exposed to programs.
type run struct {
	data    []byte
	console *consoleBuffer
	props   *propertySet
}

func (r *run) install(L *lua.LState) {
	logTable := L.NewTable()
	for name, lvl := range map[string]level{
		"debug": levelDebug,
		"info":  levelInfo,
		"warn":  levelWarn,
		"error": levelError,
	} {
		L.SetField(logTable, name, L.NewFunction(r.logFunc(lvl)))
	}
	L.SetGlobal("log", logTable)
	L.SetGlobal("print", L.NewFunction(r.logFunc(levelInfo)))

	dataTable := L.NewTable()
	L.SetField(dataTable, "size", L.NewFunction(r.dataSize))
	L.SetField(dataTable, "read", L.NewFunction(r.dataRead))
	for name, spec := range integerReaders {
		L.SetField(dataTable, name, L.NewFunction(r.intReader(spec)))
	}
	L.SetGlobal("data", dataTable)

	L.SetGlobal("property", L.NewFunction(r.property))
}

// logFunc joins its arguments with tabs, like print.
func (r *run) logFunc(lvl level) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		r.console.log(lvl, strings.Join(parts, "\t"))
		return 0
	}
}

func (r *run) dataSize(L *lua.LState) int {
	L.Push(lua.LNumber(len(r.data)))
	return 1
}

// slice returns data[off:off+n] or raises a Lua error.
func (r *run) slice(L *lua.LState, off, n int) []byte {
	if off < 0 || n < 0 || off+n > len(r.data) {
		L.RaiseError("data access out of bounds: %d bytes at offset %d (size %d)", n, off, len(r.data))
		return nil
	}
	return r.data[off : off+n]
}

func (r *run) dataRead(L *lua.LState) int {
	off := L.CheckInt(1)
	n := L.CheckInt(2)
	L.Push(lua.LString(r.slice(L, off, n)))
	return 1
}

type intSpec struct {
	size   int
	signed bool
}

var integerReaders = map[string]intSpec{
	"u8":  {1, false},
	"u16": {2, false},
	"u32": {4, false},
	"i8":  {1, true},
	"i16": {2, true},
	"i32": {4, true},
}

// intReader reads a little-endian integer, or big-endian when the second
// argument is "be".
func (r *run) intReader(spec intSpec) lua.LGFunction {
	return func(L *lua.LState) int {
		off := L.CheckInt(1)
		var order binary.ByteOrder = binary.LittleEndian
		if L.OptString(2, "le") == "be" {
			order = binary.BigEndian
		}
		b := r.slice(L, off, spec.size)

		var u uint64
		switch spec.size {
		case 1:
			u = uint64(b[0])
		case 2:
			u = uint64(order.Uint16(b))
		case 4:
			u = uint64(order.Uint32(b))
		}

		if spec.signed {
			shift := 64 - 8*spec.size
			L.Push(lua.LNumber(int64(u<<shift) >> shift))
		} else {
			L.Push(lua.LNumber(u))
		}
		return 1
	}
}

// property(category, name, kind [, size | fields])
func (r *run) property(L *lua.LState) int {
	p := property{
		category: L.CheckString(1),
		name:     L.CheckString(2),
		kind:     L.CheckString(3),
	}

	switch p.kind {
	case kindUnsigned, kindSigned, kindString:
		p.size = uint64(L.CheckInt(4))
	case kindEnum:
		fields := L.CheckTable(4)
		fields.ForEach(func(k, v lua.LValue) {
			if n, ok := v.(lua.LNumber); ok {
				p.fields = append(p.fields, engine.UIEnumField{Name: k.String(), Value: uint64(n)})
			}
		})
		sort.Slice(p.fields, func(i, j int) bool { return p.fields[i].Name < p.fields[j].Name })
	}

	if err := r.props.add(p); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// describe formats a recovered host panic.
func describe(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(v)
}
