package utils

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

func ParseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
}

// NewLogger builds a text logger at the given level. Unknown levels fall
// back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl, _ := ParseLevel(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	}))
}

// DiscardLogger drops everything. Tests use it to keep output quiet.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
