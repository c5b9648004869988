// Package logger configures the process-wide slog logger.
package logger

import (
	"log/slog"
	"os"
)

// Logger starts as the process default so library code can log before Init
// runs (or without it, in tests).
var Logger = slog.Default()

// Init sets up the default logger. Level comes from the DEBUG env var so a
// run can be made verbose without touching configuration files.
func Init() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}

	Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(Logger)
}

// With returns a child logger carrying fixed attributes, e.g. a component name.
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}
