package history

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Record describes one execution of a pattern against a data file.
type Record struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Origin     string         `json:"origin"`
	DataName   string         `json:"data_name,omitempty"`
	SourceHash string         `json:"source_sha256"`
	DataHash   string         `json:"data_sha256"`
	DataBytes  int            `json:"data_bytes"`
	LineCounts map[string]int `json:"line_counts"`
	EngineErr  string         `json:"engine_error,omitempty"`
}

// NewRecord starts a record for an execution that is about to run.
func NewRecord(origin, dataName, source string, data []byte) *Record {
	return &Record{
		ID:         uuid.New().String(),
		StartedAt:  time.Now(),
		Origin:     origin,
		DataName:   dataName,
		SourceHash: HashString(source),
		DataHash:   HashBytes(data),
		DataBytes:  len(data),
		LineCounts: map[string]int{},
	}
}

// SetSource describes the pattern source that actually ran.
func (r *Record) SetSource(origin, source string) {
	r.Origin = origin
	r.SourceHash = HashString(source)
}

// Finish stamps the end time, the console line counts and the engine error.
func (r *Record) Finish(counts map[string]int, err error) {
	r.FinishedAt = time.Now()
	if counts != nil {
		r.LineCounts = counts
	}
	if err != nil {
		r.EngineErr = err.Error()
	}
}

// Duration is the time between start and finish.
func (r *Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HashBytes returns the hex SHA-256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashString returns the hex SHA-256 of s.
func HashString(s string) string {
	return HashBytes([]byte(s))
}
