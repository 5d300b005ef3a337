// Package logging sets up the application loggers.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/rightmic/rightmic-go/internal/conf"
	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

// Init initializes the logging system with structured and human-readable loggers.
// Structured JSON output goes to the rotating log file, human-readable Text
// output goes to stderr. The structured logger becomes the slog default.
func Init(settings *conf.Settings) {
	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}

	var fileWriter io.Writer
	if settings.Main.Log.Enabled {
		fileWriter = &lumberjack.Logger{
			Filename:   settings.Main.Log.Path,
			MaxSize:    settings.Main.Log.MaxSize,
			MaxBackups: settings.Main.Log.MaxBackups,
			MaxAge:     settings.Main.Log.MaxAge,
			Compress:   true,
		}
	} else {
		fileWriter = io.Discard
	}

	structuredLogger = slog.New(slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{
		Level: level,
	}))

	humanReadableLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	slog.SetDefault(structuredLogger)
}

// StructuredLogger returns the JSON logger writing to the rotating log file.
// Falls back to the slog default if Init has not been called.
func StructuredLogger() *slog.Logger {
	if structuredLogger == nil {
		return slog.Default()
	}
	return structuredLogger
}

// HumanReadableLogger returns the text logger writing to stderr.
func HumanReadableLogger() *slog.Logger {
	if humanReadableLogger == nil {
		return slog.Default()
	}
	return humanReadableLogger
}

// ForService returns the structured logger with a service attribute attached.
func ForService(service string) *slog.Logger {
	return StructuredLogger().With("service", service)
}
