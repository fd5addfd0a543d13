// Package logger provides structured logging on top of log/slog with
// optional trace-ID correlation.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// Level controls the minimum severity that is emitted.
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// TraceIDFn extracts a trace identifier from the context, if any.
type TraceIDFn func(ctx context.Context) string

// LoggerInterface is the logging contract the rest of the application
// depends on. Concrete loggers and test fakes both satisfy it.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

var _ LoggerInterface = (*Logger)(nil)

// Logger wraps slog.Logger and stamps every record with the service name
// and, when a TraceIDFn is configured, the trace ID from the context.
type Logger struct {
	handler *slog.Logger
	traceID TraceIDFn
}

// New creates a Logger writing JSON records to w at the given level.
// traceID may be nil.
func New(w io.Writer, minLevel Level, service string, traceID TraceIDFn) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.Level(minLevel),
	})

	return &Logger{
		handler: slog.New(handler).With("service", service),
		traceID: traceID,
	}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

// With returns a Logger that includes the given attributes in every record.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{
		handler: l.handler.With(args...),
		traceID: l.traceID,
	}
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if l.traceID != nil {
		if id := l.traceID(ctx); id != "" {
			args = append(args, "trace_id", id)
		}
	}
	l.handler.Log(ctx, level, msg, args...)
}
