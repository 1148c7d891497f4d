// Package log provides the structured logging interface used across the NAM
// experiment code.
//
// The Logger interface is slog-compatible so that the backend can be switched
// without touching call sites. Two backends ship with the package: a zerolog
// backend used by the command line tool, and a log/slog backend that extracts
// cockroachdb/errors stack traces. TestLogger captures output in memory.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ModelNameKey, "NAMModel",
//	    log.FoldKey, 0,
//	)
//	logger.Info("Model created",
//	    log.FeaturesKey, 4,
//	    log.ParamsKey, 12545,
//	)
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// Fields are passed as alternating key/value pairs. Values that implement
// zerolog.LogObjectMarshaler (every typed error in pkg/errors does) are
// expanded into nested objects by the zerolog backend.
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs recoverable problems such as dropped rows or a device fallback.
	Warn(msg string, fields ...any)

	// Error logs failures. Pass the error under ErrAttrKey ("error") so the
	// backends can attach its stack trace.
	Error(msg string, fields ...any)

	// With returns a logger that adds fields to every entry.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits entries at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents the severity of a log entry. Values match log/slog.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider hands out loggers for components.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
