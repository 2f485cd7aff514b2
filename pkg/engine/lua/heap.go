package lua

import (
	"errors"
	"fmt"
	"sort"

	"patternweb/playground/pkg/engine"
)

const (
	heapAlign   = 8
	heapBase    = heapAlign // addresses below heapBase are never handed out
	initialHeap = 64 << 10
)

// Errors for heap operations.
var (
	ErrOutOfMemory   = errors.New("engine heap exhausted")
	ErrInvalidFree   = errors.New("free of unallocated pointer")
	ErrOutOfBounds   = errors.New("engine memory access out of bounds")
	ErrUnterminated  = errors.New("string is not NUL-terminated")
	ErrZeroAllocSize = errors.New("zero-size allocation")
)

type span struct {
	start, size uint32
}

// Heap is a simulated linear memory with a first-fit allocator. Backing
// storage grows on demand up to limit bytes.
type Heap struct {
	mem    []byte
	limit  uint32
	free   []span // sorted by start, coalesced
	allocs map[uint32]uint32
}

// NewHeap creates a heap that may grow to limit bytes.
func NewHeap(limit uint32) *Heap {
	if limit < heapBase+heapAlign {
		limit = heapBase + heapAlign
	}
	return &Heap{
		mem:    make([]byte, min(limit, initialHeap)),
		limit:  limit,
		free:   []span{{start: heapBase, size: limit - heapBase}},
		allocs: make(map[uint32]uint32),
	}
}

func alignUp(n uint32) (uint32, bool) {
	aligned := (uint64(n) + heapAlign - 1) &^ (heapAlign - 1)
	if aligned > 1<<32-1 {
		return 0, false
	}
	return uint32(aligned), true
}

// Allocate reserves size bytes and returns their address.
func (h *Heap) Allocate(size uint32) (engine.Ptr, error) {
	if size == 0 {
		return engine.Null, ErrZeroAllocSize
	}
	need, ok := alignUp(size)
	if !ok {
		return engine.Null, ErrOutOfMemory
	}

	for i, s := range h.free {
		if s.size < need {
			continue
		}
		addr := s.start
		if s.size == need {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			h.free[i] = span{start: s.start + need, size: s.size - need}
		}
		h.allocs[addr] = need
		h.ensure(addr + need)
		clear(h.mem[addr : addr+need])
		return engine.Ptr(addr), nil
	}
	return engine.Null, fmt.Errorf("%w: %d bytes requested", ErrOutOfMemory, size)
}

// ensure grows the backing storage to cover end.
func (h *Heap) ensure(end uint32) {
	if int(end) <= len(h.mem) {
		return
	}
	n := max(uint64(len(h.mem))*2, uint64(end))
	n = min(n, uint64(h.limit))
	grown := make([]byte, n)
	copy(grown, h.mem)
	h.mem = grown
}

// Free releases the allocation at ptr and merges it with free neighbours.
func (h *Heap) Free(ptr engine.Ptr) error {
	addr := uint32(ptr)
	size, ok := h.allocs[addr]
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidFree, addr)
	}
	delete(h.allocs, addr)

	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].start > addr })
	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = span{start: addr, size: size}

	// merge with next, then with previous
	if i+1 < len(h.free) && h.free[i].start+h.free[i].size == h.free[i+1].start {
		h.free[i].size += h.free[i+1].size
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].start+h.free[i-1].size == h.free[i].start {
		h.free[i-1].size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
	return nil
}

// region returns the allocation containing [addr, addr+n).
func (h *Heap) region(addr, n uint32) ([]byte, error) {
	for start, size := range h.allocs {
		if addr >= start && uint64(addr)+uint64(n) <= uint64(start)+uint64(size) {
			return h.mem[addr : addr+n], nil
		}
	}
	return nil, fmt.Errorf("%w: %d bytes at %d", ErrOutOfBounds, n, addr)
}

// Write copies data to ptr. The destination must lie inside one allocation.
func (h *Heap) Write(ptr engine.Ptr, data []byte) error {
	dst, err := h.region(uint32(ptr), uint32(len(data)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// Read returns n bytes at ptr, aliasing heap memory.
func (h *Heap) Read(ptr engine.Ptr, n uint32) ([]byte, error) {
	return h.region(uint32(ptr), n)
}

// ReadString returns the NUL-terminated string at ptr, aliasing heap memory.
func (h *Heap) ReadString(ptr engine.Ptr) ([]byte, error) {
	addr := uint32(ptr)
	for start, size := range h.allocs {
		if addr < start || addr >= start+size {
			continue
		}
		buf := h.mem[addr : start+size]
		for i, c := range buf {
			if c == 0 {
				return buf[:i], nil
			}
		}
		return nil, fmt.Errorf("%w at %d", ErrUnterminated, addr)
	}
	return nil, fmt.Errorf("%w: string at %d", ErrOutOfBounds, addr)
}

// WriteString allocates len(s)+1 bytes and stores s NUL-terminated.
func (h *Heap) WriteString(s string) (engine.Ptr, error) {
	ptr, err := h.Allocate(uint32(len(s)) + 1)
	if err != nil {
		return engine.Null, err
	}
	copy(h.mem[ptr:], s)
	h.mem[uint32(ptr)+uint32(len(s))] = 0
	return ptr, nil
}

// Allocated returns the number of live allocations.
func (h *Heap) Allocated() int {
	return len(h.allocs)
}

// InUse returns the number of bytes held by live allocations.
func (h *Heap) InUse() uint64 {
	var n uint64
	for _, size := range h.allocs {
		n += uint64(size)
	}
	return n
}
