package history

import (
	"context"
	"errors"
	"fmt"

	"patternweb/playground/pkg/config"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("history store is closed")

// Store keeps run records for the lifetime of the process.
type Store interface {
	// Insert adds a record.
	Insert(ctx context.Context, r *Record) error

	// List returns up to limit records, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteOldest removes records so that at most keep remain, and returns
	// how many were removed.
	DeleteOldest(ctx context.Context, keep int64) (int64, error)

	Close() error
}

// NewStore creates the store selected by cfg.Backend.
func NewStore(cfg config.HistoryConfig) (Store, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return NewSQLiteStore(":memory:")
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
