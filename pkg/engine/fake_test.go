package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// fakeRuntime is an in-memory Runtime that records every ABI interaction.
type fakeRuntime struct {
	mu sync.Mutex

	next   Ptr
	allocs map[Ptr][]byte
	freed  map[Ptr]int

	data     []byte
	programs []string
	console  Ptr
	ui       Ptr

	initErr   error
	initGate  chan struct{}
	execGate  chan struct{}
	writeErr  error
	setErr    error
	execErr   error
	closed    bool
	initCalls int

	active     atomic.Int32
	overlapped atomic.Bool
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		next:   8,
		allocs: make(map[Ptr][]byte),
		freed:  make(map[Ptr]int),
	}
}

func (f *fakeRuntime) enter() func() {
	if f.active.Add(1) > 1 {
		f.overlapped.Store(true)
	}
	return func() { f.active.Add(-1) }
}

func (f *fakeRuntime) Initialize(ctx context.Context) error {
	defer f.enter()()
	if f.initGate != nil {
		<-f.initGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	return f.initErr
}

func (f *fakeRuntime) alloc(size uint32) Ptr {
	p := f.next
	f.allocs[p] = make([]byte, size)
	f.next += Ptr(size) + 8
	return p
}

func (f *fakeRuntime) Allocate(ctx context.Context, size uint32) (Ptr, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alloc(size), nil
}

func (f *fakeRuntime) Free(ctx context.Context, ptr Ptr) error {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.allocs[ptr]; !ok {
		return fmt.Errorf("free of unknown pointer %d", ptr)
	}
	f.freed[ptr]++
	delete(f.allocs, ptr)
	return nil
}

func (f *fakeRuntime) Write(ptr Ptr, data []byte) error {
	defer f.enter()()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.allocs[ptr]
	if !ok || len(buf) < len(data) {
		return errors.New("write out of bounds")
	}
	copy(buf, data)
	return nil
}

func (f *fakeRuntime) ReadString(ptr Ptr) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.allocs[ptr]
	if !ok {
		return nil, errors.New("read of unknown pointer")
	}
	for i, c := range buf {
		if c == 0 {
			return buf[:i], nil
		}
	}
	return buf, nil
}

func (f *fakeRuntime) SetData(ctx context.Context, ptr Ptr, length uint32) error {
	defer f.enter()()
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ptr == Null {
		f.data = []byte{}
		return nil
	}
	f.data = append([]byte(nil), f.allocs[ptr][:length]...)
	return nil
}

func (f *fakeRuntime) ExecutePatternLanguageCode(ctx context.Context, ptr Ptr) error {
	defer f.enter()()
	if f.execGate != nil {
		<-f.execGate
	}
	if f.execErr != nil {
		return f.execErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	program := f.allocs[ptr]
	if n := len(program); n == 0 || program[n-1] != 0 {
		return errors.New("program is not NUL-terminated")
	}
	text := string(program[:len(program)-1])
	f.programs = append(f.programs, text)

	out := fmt.Sprintf("[INFO]  %s\n\x01[DEBUG] %d bytes\n\x01", text, len(f.data))
	f.console = f.alloc(uint32(len(out) + 1))
	copy(f.allocs[f.console], out)

	ui := `[{"categoryName":"c","items":[]}]`
	f.ui = f.alloc(uint32(len(ui) + 1))
	copy(f.allocs[f.ui], ui)
	return nil
}

func (f *fakeRuntime) ConsoleResult(ctx context.Context) (Ptr, error) {
	defer f.enter()()
	return f.console, nil
}

func (f *fakeRuntime) UIConfig(ctx context.Context) (Ptr, error) {
	defer f.enter()()
	return f.ui, nil
}

func (f *fakeRuntime) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// liveUserAllocs counts allocations that are neither console nor UI buffers.
func (f *fakeRuntime) liveUserAllocs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for p := range f.allocs {
		if p != f.console && p != f.ui {
			n++
		}
	}
	return n
}

func (f *fakeRuntime) doubleFrees() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.freed {
		if c > 1 {
			n++
		}
	}
	return n
}
