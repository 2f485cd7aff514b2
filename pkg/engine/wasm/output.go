package wasm

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
)

// logWriter turns module output into one log record per line.
type logWriter struct {
	logger *slog.Logger
	level  slog.Level
	stream string

	mu  sync.Mutex
	buf []byte
}

func newLogWriter(logger *slog.Logger, level slog.Level, stream string) *logWriter {
	return &logWriter{logger: logger, level: level, stream: stream}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs a trailing partial line.
func (w *logWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *logWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	w.logger.Log(context.Background(), w.level, string(line), "stream", w.stream)
}
