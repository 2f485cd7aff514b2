package lua

import (
	"bytes"
	"errors"
	"testing"

	"patternweb/playground/pkg/engine"
)

func TestHeap_AllocateAlignedAndNonNull(t *testing.T) {
	h := NewHeap(1 << 20)

	seen := map[engine.Ptr]bool{}
	for _, size := range []uint32{1, 7, 8, 9, 100} {
		p, err := h.Allocate(size)
		if err != nil {
			t.Fatalf("Allocate(%d) failed: %v", size, err)
		}
		if p == engine.Null {
			t.Fatalf("Allocate(%d) returned NULL", size)
		}
		if p%heapAlign != 0 {
			t.Errorf("pointer %d not aligned", p)
		}
		if seen[p] {
			t.Errorf("pointer %d handed out twice", p)
		}
		seen[p] = true
	}
}

func TestHeap_FreeCoalescesAndReuses(t *testing.T) {
	h := NewHeap(1 << 16)

	a, _ := h.Allocate(16)
	b, _ := h.Allocate(16)
	c, _ := h.Allocate(16)

	if err := h.Free(b); err != nil {
		t.Fatal(err)
	}
	if err := h.Free(a); err != nil {
		t.Fatal(err)
	}

	// a and b merged into one 32-byte hole at a.
	d, err := h.Allocate(32)
	if err != nil {
		t.Fatal(err)
	}
	if d != a {
		t.Errorf("expected first-fit reuse at %d, got %d", a, d)
	}

	_ = h.Free(c)
	_ = h.Free(d)
	if h.Allocated() != 0 || len(h.free) != 1 {
		t.Errorf("expected a single free span, got %v", h.free)
	}
}

func TestHeap_Errors(t *testing.T) {
	h := NewHeap(64)

	if _, err := h.Allocate(0); !errors.Is(err, ErrZeroAllocSize) {
		t.Errorf("expected ErrZeroAllocSize, got %v", err)
	}
	if _, err := h.Allocate(1 << 20); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("expected ErrOutOfMemory, got %v", err)
	}
	if err := h.Free(8); !errors.Is(err, ErrInvalidFree) {
		t.Errorf("expected ErrInvalidFree, got %v", err)
	}

	p, _ := h.Allocate(4)
	if err := h.Free(p); err != nil {
		t.Fatal(err)
	}
	if err := h.Free(p); !errors.Is(err, ErrInvalidFree) {
		t.Errorf("double free must fail, got %v", err)
	}
	if err := h.Write(p, []byte("x")); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("write to freed memory must fail, got %v", err)
	}
}

func TestHeap_WriteReadString(t *testing.T) {
	h := NewHeap(1 << 20)

	p, err := h.WriteString("hello")
	if err != nil {
		t.Fatal(err)
	}
	s, err := h.ReadString(p)
	if err != nil || string(s) != "hello" {
		t.Errorf("ReadString = %q, %v", s, err)
	}

	q, _ := h.Allocate(8)
	if err := h.Write(q, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.ReadString(q); !errors.Is(err, ErrUnterminated) {
		t.Errorf("expected ErrUnterminated, got %v", err)
	}
	if err := h.Write(q, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("overflowing write must fail, got %v", err)
	}
}

func TestHeap_Grows(t *testing.T) {
	h := NewHeap(4 << 20)
	data := bytes.Repeat([]byte{0xee}, 1<<20)

	p, err := h.Allocate(uint32(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Write(p, data); err != nil {
		t.Fatal(err)
	}
	got, err := h.Read(p, uint32(len(data)))
	if err != nil || !bytes.Equal(got, data) {
		t.Error("large allocation round trip failed")
	}
}
