package logger

import (
	"context"
	"log"

	"github.com/bloomi-app/bloomi-backend/internal/trace"
)

// Logger provides request-scoped logging keyed by trace id
type Logger struct {
	traceID string
}

// New creates a logger bound to the trace id carried by ctx
func New(ctx context.Context) *Logger {
	traceID := trace.ID(ctx)
	if traceID == "" {
		traceID = "unknown"
	}
	return &Logger{traceID: traceID}
}

// WithTraceID creates a logger for an explicit trace id
func WithTraceID(traceID string) *Logger {
	if traceID == "" {
		traceID = "unknown"
	}
	return &Logger{traceID: traceID}
}

// TraceID returns the id this logger writes
func (l *Logger) TraceID() string {
	return l.traceID
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	log.Printf("[error] trace_id=%s operation=%s error=%v", l.traceID, operation, err)
}

// LogErrorf logs a formatted error with context
func (l *Logger) LogErrorf(operation string, format string, args ...interface{}) {
	log.Printf("[error] trace_id=%s operation=%s "+format, append([]interface{}{l.traceID, operation}, args...)...)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	log.Printf("[info] trace_id=%s operation=%s "+format, append([]interface{}{l.traceID, operation}, args...)...)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	log.Printf("[warn] trace_id=%s operation=%s "+format, append([]interface{}{l.traceID, operation}, args...)...)
}
