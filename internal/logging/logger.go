package logging

import (
	"context"
	"log"
)

type requestIDKey struct{}

type userIDKey struct{}

// WithRequestID stores the request id in ctx for downstream loggers.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, rid)
}

// RequestID extracts the request ID from a standard context
func RequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

// WithUserID tags ctx with the authenticated user so log lines can name the owner.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, userIDKey{}, uid)
}

func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDKey{}).(string); ok {
		return uid
	}
	return ""
}

// Logger provides structured logging for services
type Logger struct {
	requestID string
	userID    string
}

// FromContext creates a logger with request context
func FromContext(ctx context.Context) *Logger {
	rid := RequestID(ctx)
	if rid == "" {
		rid = "unknown"
	}
	return &Logger{requestID: rid, userID: UserID(ctx)}
}

// Error logs an error with context
func (l *Logger) Error(operation string, err error) {
	log.Printf("[error] request_id=%s user=%s operation=%s error=%v", l.requestID, l.userID, operation, err)
}

// Errorf logs a formatted error with context
func (l *Logger) Errorf(operation string, format string, args ...interface{}) {
	log.Printf("[error] request_id=%s user=%s operation=%s "+format, append([]interface{}{l.requestID, l.userID, operation}, args...)...)
}

// Info logs an info message with context
func (l *Logger) Info(operation string, message string) {
	log.Printf("[info] request_id=%s user=%s operation=%s message=%q", l.requestID, l.userID, operation, message)
}

// Infof logs a formatted info message with context
func (l *Logger) Infof(operation string, format string, args ...interface{}) {
	log.Printf("[info] request_id=%s user=%s operation=%s "+format, append([]interface{}{l.requestID, l.userID, operation}, args...)...)
}

// Warn logs a warning with context
func (l *Logger) Warn(operation string, message string) {
	log.Printf("[warn] request_id=%s user=%s operation=%s message=%q", l.requestID, l.userID, operation, message)
}

// Warnf logs a formatted warning with context
func (l *Logger) Warnf(operation string, format string, args ...interface{}) {
	log.Printf("[warn] request_id=%s user=%s operation=%s "+format, append([]interface{}{l.requestID, l.userID, operation}, args...)...)
}
