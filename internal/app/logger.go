package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// parseLevel accepts debug, info, warn and error. Empty means info.
func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn' or 'error'", s)
	}
	return level, nil
}

// newLogger creates an isolated logger writing to outW. It does not touch
// the global logger.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level, err := parseLevel(levelStr)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
