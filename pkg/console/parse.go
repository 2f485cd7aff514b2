package console

import "strings"

// Delimiter separates log entries in the engine's result string.
const Delimiter = "\n\x01"

// Line is one rendered unit of console output.
type Line struct {
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Split splits a raw result on Delimiter. It behaves like strings.Split:
// k delimiters give k+1 segments, so Split("") is [""] and a trailing
// delimiter yields a final empty segment.
func Split(raw string) []string {
	return strings.Split(raw, Delimiter)
}

// Parse splits raw and classifies each segment, preserving order.
func Parse(raw string) []Line {
	segments := Split(raw)
	lines := make([]Line, len(segments))
	for i, s := range segments {
		lines[i] = Line{Text: s, Severity: Classify(s)}
	}
	return lines
}

// Counts tallies lines per severity.
func Counts(lines []Line) map[Severity]int {
	counts := make(map[Severity]int, len(prefixes)+1)
	for _, l := range lines {
		counts[l.Severity]++
	}
	return counts
}
