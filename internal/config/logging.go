package config

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger for the CLI. Debug lowers the level to debug.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupLogging installs the CLI logger as the slog default.
func SetupLogging(w io.Writer, debug bool) *slog.Logger {
	logger := NewLogger(w, debug)
	slog.SetDefault(logger)
	return logger
}
