// Package logging configures the process-wide slog logger shared by the
// sync and verify commands.
package logging

import (
	"log/slog"
	"os"

	"github.com/komohaven/availsync/pkg/config"
)

// Setup builds a logger from the config section, installs it as the slog
// default, and returns it. debugMode forces debug level regardless of the
// configured one.
func Setup(cfg config.LoggingConfig, debugMode bool) *slog.Logger {
	var level slog.Level
	if debugMode {
		level = slog.LevelDebug
	} else {
		switch cfg.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
