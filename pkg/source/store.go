package source

import (
	"sync"
	"time"
)

// Origin identifies where the current pattern source came from.
type Origin string

const (
	OriginNone      Origin = "none"
	OriginLocalFile Origin = "local-file"
	OriginGist      Origin = "gist"
	OriginURLParam  Origin = "url-param"
	OriginEditor    Origin = "editor"
)

// PatternSource is the pattern program text the next execution runs.
type PatternSource struct {
	Content   string    `json:"content"`
	Origin    Origin    `json:"origin"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Store holds the single current PatternSource. Setting a new one discards
// the previous value.
type Store struct {
	mu  sync.RWMutex
	cur PatternSource
}

// NewStore creates a store with an empty source of origin none.
func NewStore() *Store {
	return &Store{cur: PatternSource{Origin: OriginNone}}
}

// Set replaces the current source.
func (s *Store) Set(content string, origin Origin) PatternSource {
	ps := PatternSource{Content: content, Origin: origin, UpdatedAt: time.Now()}
	s.mu.Lock()
	s.cur = ps
	s.mu.Unlock()
	return ps
}

// Current returns the current source.
func (s *Store) Current() PatternSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}
