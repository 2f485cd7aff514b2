package console

import (
	"fmt"
	"html"
	"io"

	"github.com/gookit/color"
)

// Sink writes console lines to an output.
type Sink interface {
	Write(lines []Line) error
}

// TerminalSink writes lines to a terminal, colored by severity.
type TerminalSink struct {
	w       io.Writer
	colored bool
}

// NewTerminalSink creates a terminal sink. When colored is false lines are
// written verbatim.
func NewTerminalSink(w io.Writer, colored bool) *TerminalSink {
	return &TerminalSink{w: w, colored: colored}
}

var severityColors = map[Severity]color.Color{
	SeverityDebug:   color.Gray,
	SeverityInfo:    color.Cyan,
	SeverityWarning: color.Yellow,
	SeverityError:   color.Red,
}

// Write implements Sink.
func (s *TerminalSink) Write(lines []Line) error {
	for _, l := range lines {
		text := l.Text
		if c, ok := severityColors[l.Severity]; ok && s.colored {
			text = c.Sprint(text)
		}
		if _, err := fmt.Fprintln(s.w, text); err != nil {
			return err
		}
	}
	return nil
}

// HTMLSink writes each line as a paragraph whose class is the severity.
type HTMLSink struct {
	w io.Writer
}

// NewHTMLSink creates an HTML sink.
func NewHTMLSink(w io.Writer) *HTMLSink {
	return &HTMLSink{w: w}
}

// Write implements Sink.
func (s *HTMLSink) Write(lines []Line) error {
	for _, l := range lines {
		if _, err := fmt.Fprintf(s.w, "<p class=%q>%s</p>\n", string(l.Severity), html.EscapeString(l.Text)); err != nil {
			return err
		}
	}
	return nil
}
