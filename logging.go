package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// setupLogging installs the default logger, writing to stderr and to a
// rotating file in dir. The returned func closes the file.
func setupLogging(dir, level string) func() {
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "simbridge.log"),
		MaxSize:    16, // MB
		MaxBackups: 2,
		MaxAge:     14,
	}
	lvl := parseLevel(level)
	if lvl == slog.LevelDebug {
		w.MaxSize = 128
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stderr, w), &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
	slog.Info("Logging initialized", "file", w.Filename, "level", lvl.String(), "version", Version)

	return func() {
		w.Close()
	}
}
