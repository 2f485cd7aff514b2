package console

import "strings"

// Severity classifies one console line.
type Severity string

const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityPlain   Severity = "plain"
)

// prefixes is checked in order; the first match wins.
var prefixes = []struct {
	prefix   string
	severity Severity
}{
	{"[DEBUG]", SeverityDebug},
	{"[INFO]", SeverityInfo},
	{"[WARN]", SeverityWarning},
	{"[ERROR]", SeverityError},
}

// Classify returns the severity of a console segment by its literal prefix.
// Segments without a known prefix are SeverityPlain.
func Classify(segment string) Severity {
	for _, p := range prefixes {
		if strings.HasPrefix(segment, p.prefix) {
			return p.severity
		}
	}
	return SeverityPlain
}

// Severities lists every severity in display order.
func Severities() []Severity {
	return []Severity{SeverityDebug, SeverityInfo, SeverityWarning, SeverityError, SeverityPlain}
}
