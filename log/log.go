// Package log provides structured logging for rpcbridge. It wraps Go's
// log/slog with per-module child loggers and a configurable output format.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger.
type Logger struct {
	inner *slog.Logger
}

// defaultLogger is the process-wide logger used by the package-level
// convenience functions.
var defaultLogger *Logger

func init() {
	defaultLogger = New(slog.LevelInfo)
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	return NewWithFormat(os.Stderr, level, FormatJSON)
}

// NewWithFormat creates a Logger writing to w in the given format.
func NewWithFormat(w io.Writer, level slog.Level, format Format) *Logger {
	return NewWithHandler(format.handler(w, &slog.HandlerOptions{Level: level}))
}

// NewWithHandler creates a Logger backed by the supplied slog.Handler. This
// is useful for testing or for writing to a custom destination.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h)}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the current package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Module returns a child logger with an additional "module" attribute.
func (l *Logger) Module(name string) *Logger {
	return &Logger{inner: l.inner.With("module", name)}
}

// Conversion returns a child logger tagged with the entity being converted
// and the direction.
func (l *Logger) Conversion(entity, direction string) *Logger {
	return &Logger{inner: l.inner.With("module", "convert", "entity", entity, "direction", direction)}
}

// With returns a child logger with additional key-value context.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.inner.Info(msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.inner.Warn(msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
