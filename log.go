package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// parseLevel maps a configured level name to a slog level. verbose always
// wins.
func parseLevel(name string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// consoleLogger logs to stderr, colored when stderr is a terminal.
func consoleLogger(level slog.Level) *slog.Logger {
	return newConsoleLogger(os.Stderr, isatty.IsTerminal(os.Stderr.Fd()), level)
}

func newConsoleLogger(w io.Writer, color bool, level slog.Level) *slog.Logger {
	if color {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// fileLogger opens path for appending and returns a logger writing to it.
// The terminal belongs to the sink while frames are shown, so this is the
// only log destination during the animation. An empty path discards.
func fileLogger(path string, level slog.Level) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
