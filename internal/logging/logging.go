// Package logging is a thin subsystem-tagged layer over log/slog.
//
// Call InitForCLI once at startup. Until then messages at Info and above go
// to stderr through slog's default text handler.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Level is the minimum severity that is emitted.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
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

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps debug, info, warn and error (any case) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// InitForCLI routes all log output to w at the given minimum level.
func InitForCLI(level Level, w io.Writer) {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()}))
	current.Store(logger)
	slog.SetDefault(logger)
}

// Discard silences all output, for full-screen UIs.
func Discard() {
	InitForCLI(LevelError, io.Discard)
}

// Logger returns the underlying slog logger.
func Logger() *slog.Logger {
	return current.Load()
}

func log(level Level, subsystem string, err error, format string, args ...any) {
	logger := current.Load()
	if !logger.Enabled(context.Background(), level.slogLevel()) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	logger.LogAttrs(context.Background(), level.slogLevel(), msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, format string, args ...any) {
	log(LevelDebug, subsystem, nil, format, args...)
}

// Info logs an informational message.
func Info(subsystem string, format string, args ...any) {
	log(LevelInfo, subsystem, nil, format, args...)
}

// Warn logs a warning.
func Warn(subsystem string, format string, args ...any) {
	log(LevelWarn, subsystem, nil, format, args...)
}

// Error logs an error with its cause.
func Error(subsystem string, err error, format string, args ...any) {
	log(LevelError, subsystem, err, format, args...)
}
