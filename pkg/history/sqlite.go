package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore is a Store on an SQLite database. With the ":memory:" DSN the
// database lives only as long as the store.
type SQLiteStore struct {
	db        *sql.DB
	closeOnce sync.Once

	insertStmt *sql.Stmt
	listStmt   *sql.Stmt
	countStmt  *sql.Stmt
	pruneStmt  *sql.Stmt
}

// NewSQLiteStore opens dsn and prepares the schema.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn cannot be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps an in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		origin TEXT NOT NULL,
		data_name TEXT NOT NULL DEFAULT '',
		source_sha256 TEXT NOT NULL,
		data_sha256 TEXT NOT NULL,
		data_bytes INTEGER NOT NULL,
		line_counts TEXT NOT NULL,
		engine_error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO runs (id, started_at, finished_at, origin, data_name, source_sha256,
			data_sha256, data_bytes, line_counts, engine_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, started_at, finished_at, origin, data_name, source_sha256,
			data_sha256, data_bytes, line_counts, engine_error
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list: %w", err)
	}

	s.countStmt, err = s.db.Prepare(`SELECT COUNT(*) FROM runs`)
	if err != nil {
		return fmt.Errorf("failed to prepare count: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune: %w", err)
	}

	return nil
}

// Insert implements Store.
func (s *SQLiteStore) Insert(ctx context.Context, r *Record) error {
	counts, err := json.Marshal(r.LineCounts)
	if err != nil {
		return fmt.Errorf("failed to encode line counts: %w", err)
	}

	_, err = s.insertStmt.ExecContext(ctx,
		r.ID,
		r.StartedAt.UnixNano(),
		r.FinishedAt.UnixNano(),
		r.Origin,
		r.DataName,
		r.SourceHash,
		r.DataHash,
		r.DataBytes,
		string(counts),
		r.EngineErr,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", r.ID, err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}

	rows, err := s.listStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			r                 Record
			started, finished int64
			counts            string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.Origin, &r.DataName,
			&r.SourceHash, &r.DataHash, &r.DataBytes, &counts, &r.EngineErr); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		r.FinishedAt = time.Unix(0, finished)
		if err := json.Unmarshal([]byte(counts), &r.LineCounts); err != nil {
			return nil, fmt.Errorf("failed to decode line counts of %s: %w", r.ID, err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.countStmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// DeleteOldest implements Store.
func (s *SQLiteStore) DeleteOldest(ctx context.Context, keep int64) (int64, error) {
	res, err := s.pruneStmt.ExecContext(ctx, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.listStmt, s.countStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}
