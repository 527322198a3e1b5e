// Package logger provides a zap-based application logger that annotates
// every entry with the service name and, when present, the trace id of the
// calling context.
package logger

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level controls the minimum level that gets written.
type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// TraceIDFn extracts a trace id from the context, or returns "" when the
// context carries none.
type TraceIDFn func(ctx context.Context) string

// Logger writes structured log entries.
type Logger struct {
	sl      *zap.SugaredLogger
	traceID TraceIDFn
}

// New constructs a logger writing JSON entries to w.
func New(w io.Writer, level Level, service string, traceID TraceIDFn) *Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(w), level)
	l := zap.New(core).With(zap.String("service", service))
	return &Logger{sl: l.Sugar(), traceID: traceID}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.Debugw(msg, l.with(ctx, keysAndValues)...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.Infow(msg, l.with(ctx, keysAndValues)...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.Warnw(msg, l.with(ctx, keysAndValues)...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, keysAndValues ...any) {
	l.sl.Errorw(msg, l.with(ctx, keysAndValues)...)
}

func (l *Logger) with(ctx context.Context, keysAndValues []any) []any {
	if l.traceID == nil {
		return keysAndValues
	}
	id := l.traceID(ctx)
	if id == "" {
		return keysAndValues
	}
	return append(keysAndValues, "trace_id", id)
}
