package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format selects how log records are rendered.
type Format string

const (
	// FormatJSON writes one JSON object per record.
	FormatJSON Format = "json"
	// FormatText writes logfmt-style key=value lines.
	FormatText Format = "text"
)

func (f Format) handler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if f == FormatText {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ParseFormat parses a format name. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("log: unknown format %q", s)
	}
}

// ParseLevel parses a level name case-insensitively. The empty string
// selects info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log: unknown level %q", s)
	}
}
