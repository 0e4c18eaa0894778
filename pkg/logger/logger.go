// Package logger provides the structured logging surface shared by the
// bridge and the MCP gateway. It wraps log/slog behind a swappable
// singleton so that command entry points can reconfigure level/format
// once at startup while the rest of the code just calls the package-level
// functions.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var singleton atomic.Value // *slog.Logger

func init() {
	singleton.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// Initialize (re)configures the singleton logger from BLD_REMOTE_LOG_LEVEL.
// All bridge/gateway log output goes to stderr: the MCP stdio protocol (C5)
// reserves stdout for its own framing.
func Initialize() {
	InitializeWithLevel(os.Getenv("BLD_REMOTE_LOG_LEVEL"))
}

// InitializeWithLevel (re)configures the singleton logger with an explicit
// level string, one of DEBUG|INFO|WARNING|ERROR|CRITICAL (case-insensitive).
func InitializeWithLevel(levelName string) {
	singleton.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(levelName)})))
}

func parseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARNING":
		return slog.LevelWarn
	case "ERROR", "CRITICAL":
		return slog.LevelError
	case "INFO", "":
		return slog.LevelInfo
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	return singleton.Load().(*slog.Logger)
}

// Debug logs at debug level.
func Debug(msg string) { get().Debug(msg) }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { get().Debug(sprintf(format, args...)) }

// Debugw logs a message with structured key/value pairs at debug level.
func Debugw(msg string, kv ...any) { get().Log(context.Background(), slog.LevelDebug, msg, kv...) }

// Info logs at info level.
func Info(msg string) { get().Info(msg) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { get().Info(sprintf(format, args...)) }

// Infow logs a message with structured key/value pairs at info level.
func Infow(msg string, kv ...any) { get().Log(context.Background(), slog.LevelInfo, msg, kv...) }

// Warn logs at warning level.
func Warn(msg string) { get().Warn(msg) }

// Warnf logs a formatted message at warning level.
func Warnf(format string, args ...any) { get().Warn(sprintf(format, args...)) }

// Warnw logs a message with structured key/value pairs at warning level.
func Warnw(msg string, kv ...any) { get().Log(context.Background(), slog.LevelWarn, msg, kv...) }

// Error logs at error level.
func Error(msg string) { get().Error(msg) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { get().Error(sprintf(format, args...)) }

// Errorw logs a message with structured key/value pairs at error level.
func Errorw(msg string, kv ...any) { get().Log(context.Background(), slog.LevelError, msg, kv...) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
