package console

import "sync"

// Feed is the append-only, clearable list of lines shown to the user.
// It is safe for concurrent use.
type Feed struct {
	mu    sync.RWMutex
	lines []Line
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Clear removes all lines.
func (f *Feed) Clear() {
	f.mu.Lock()
	f.lines = nil
	f.mu.Unlock()
}

// Render parses raw and appends the resulting lines in split order.
// It returns the appended lines.
func (f *Feed) Render(raw string) []Line {
	lines := Parse(raw)
	f.Append(lines...)
	return lines
}

// Append adds already classified lines.
func (f *Feed) Append(lines ...Line) {
	f.mu.Lock()
	f.lines = append(f.lines, lines...)
	f.mu.Unlock()
}

// Replace clears the feed and renders raw as one atomic step, so readers
// never observe a half-rendered run.
func (f *Feed) Replace(raw string) []Line {
	lines := Parse(raw)
	f.mu.Lock()
	f.lines = append([]Line(nil), lines...)
	f.mu.Unlock()
	return lines
}

// Lines returns a copy of the current lines.
func (f *Feed) Lines() []Line {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Line, len(f.lines))
	copy(out, f.lines)
	return out
}

// Len returns the number of lines.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.lines)
}
