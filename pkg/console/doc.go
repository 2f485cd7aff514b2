// Package console parses and renders the engine's leveled log stream.
//
// The engine returns the whole log of a run as one string. Entries are
// separated by a newline followed by the control character 0x01, not by a
// newline alone, because a single entry may span several lines:
//
//	"[INFO]  header ok\n\x01[ERROR] bad magic\n  at offset 0x10\n\x01"
//
// Parse splits on that delimiter and tags every segment with a Severity
// taken from its literal prefix. Tagging never drops or reorders segments.
//
// A Feed holds the lines of the latest run for the UI; a Sink writes lines
// somewhere (a terminal, an HTML fragment).
package console
