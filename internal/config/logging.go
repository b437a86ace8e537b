package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// OpenLog returns the destination for structured logs. With no file
// configured logs are discarded so they never interleave with the TUI.
func (c LogConfig) OpenLog() (io.WriteCloser, error) {
	if c.File == "" {
		return nopCloser{io.Discard}, nil
	}
	path, err := ExpandHome(c.File)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// HandlerOptions returns the slog options for the configured level.
func (c LogConfig) HandlerOptions() *slog.HandlerOptions {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	return &slog.HandlerOptions{Level: level}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
