package lua

import (
	"strings"
)

// Log levels of the console stream.
type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

// linePrefixes match the compiled engine's log callback byte for byte.
var linePrefixes = [...]string{
	levelDebug: "[DEBUG] ",
	levelInfo:  "[INFO]  ",
	levelWarn:  "[WARN]  ",
	levelError: "[ERROR] ",
}

const entryEnd = "\n\x01"

// consoleBuffer accumulates the console stream of one run.
type consoleBuffer struct {
	sb strings.Builder
}

func (c *consoleBuffer) log(lvl level, msg string) {
	c.sb.WriteString(linePrefixes[lvl])
	c.sb.WriteString(msg)
	c.sb.WriteString(entryEnd)
}

func (c *consoleBuffer) raw(entry string) {
	c.sb.WriteString(entry)
	c.sb.WriteString(entryEnd)
}

func (c *consoleBuffer) String() string {
	return c.sb.String()
}

func (c *consoleBuffer) Reset() {
	c.sb.Reset()
}
