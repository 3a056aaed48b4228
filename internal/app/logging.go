package app

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the gateway debug logger. The TUI owns stdout, so
// logging is off unless AIRDASH_LOG names a file to append to.
// AIRDASH_LOG_LEVEL=debug includes per-call gateway records.
func NewLogger() *slog.Logger {
	path := strings.TrimSpace(os.Getenv("AIRDASH_LOG"))
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelInfo
	if strings.EqualFold(strings.TrimSpace(os.Getenv("AIRDASH_LOG_LEVEL")), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
}
