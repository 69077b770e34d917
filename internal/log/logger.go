// Package log wraps slog with request correlation. The router stores one
// logger per request in the context and everything below it logs through
// GetLoggerInstanceFromContext.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type ctxKey int

const (
	correlationIDKey ctxKey = iota
	loggerKey
)

// CorrelationIDAttr is the attribute name every correlated line carries.
const CorrelationIDAttr = "correlation_id"

type Logger struct {
	*slog.Logger
}

// NewLoggerWithJSONOutput writes JSON lines to stdout at LOG_LEVEL (info by default).
func NewLoggerWithJSONOutput() *Logger {
	return NewLogger(os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
}

func NewLogger(w io.Writer, level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: level <= slog.LevelDebug,
		})),
	}
}

func ParseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		if strings.EqualFold(strings.TrimSpace(raw), "warning") {
			return slog.LevelWarn
		}
		return slog.LevelInfo
	}
	return level
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithCorrelationID tags the logger with the context's correlation ID,
// generating one when the context has none.
func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	id, ok := CorrelationID(ctx)
	if !ok {
		id = GenerateCorrelationID()
	}
	return l.With(CorrelationIDAttr, id)
}

func GenerateCorrelationID() string {
	return uuid.NewString()
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok && id != ""
}

func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// GetLoggerInstanceFromContext returns the request logger stored by the
// router. Otherwise it correlates fallbackLogger, or a stdout logger when
// fallbackLogger is nil.
func GetLoggerInstanceFromContext(ctx context.Context, fallbackLogger *Logger) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok {
			return l
		}
	}

	if fallbackLogger == nil {
		fallbackLogger = NewLoggerWithJSONOutput()
	}
	if ctx == nil {
		return fallbackLogger
	}
	return fallbackLogger.WithCorrelationID(ctx)
}
