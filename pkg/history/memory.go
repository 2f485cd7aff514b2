package history

import (
	"context"
	"sync"
)

// MemoryStore is a slice-backed Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record // oldest first
	closed  bool
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert implements Store.
func (m *MemoryStore) Insert(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	cp := *r
	m.records = append(m.records, &cp)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*Record, 0, n)
	for i := len(m.records) - 1; i >= 0 && len(out) < n; i-- {
		cp := *m.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrStoreClosed
	}
	return int64(len(m.records)), nil
}

// DeleteOldest implements Store.
func (m *MemoryStore) DeleteOldest(_ context.Context, keep int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrStoreClosed
	}

	excess := int64(len(m.records)) - max(keep, 0)
	if excess <= 0 {
		return 0, nil
	}
	m.records = append([]*Record(nil), m.records[excess:]...)
	return excess, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}
