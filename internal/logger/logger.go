// Package logger wraps log/slog with a process-wide default and helpers for
// carrying a request-scoped logger through a context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

type ctxKey struct{}

// Init installs the process logger. format is "json" or "text".
func Init(level, format string) {
	l := New(os.Stdout, level, strings.EqualFold(format, "json"))
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l)
}

// New builds a logger writing to w without touching the process default.
func New(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Get returns the process logger, initializing an info-level text logger on
// first use.
func Get() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init("info", "text")
	return Get()
}

// IntoContext attaches l to ctx.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached to ctx, or the process logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return Get()
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }

func Info(msg string, args ...any) { Get().Info(msg, args...) }

func Warn(msg string, args ...any) { Get().Warn(msg, args...) }

func Error(msg string, args ...any) { Get().Error(msg, args...) }

// Fatal logs at error level and exits.
func Fatal(msg string, args ...any) {
	Get().Error(msg, args...)
	os.Exit(1)
}

// With returns the process logger with the given attributes.
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
