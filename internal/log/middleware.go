package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"spendtrack/internal/core"
)

// RequestIDHeader carries the request ID in and out of the server.
const RequestIDHeader = "X-Request-ID"

// Middleware stores logger in the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware tags the context logger with the incoming request ID,
// generating one when the client did not send it, and echoes it back.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		logger := FromContext(r.Context()).With(FieldRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog logs every completed request at a level derived from its status.
func AccessLog(clientIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			ip := r.RemoteAddr
			if clientIP != nil {
				ip = clientIP(r)
			}
			NewStructuredLogger(FromContext(r.Context())).
				LogHTTPEnd(r.Context(), r, rec.status, time.Since(start).Milliseconds(), ip)
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogHTTPEnd logs the completion of an HTTP request
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs).
		WithClientIP(clientIP)

	sl.logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogTransactionCreated logs a stored transaction together with its source
// (transcript, receipt or manual).
func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, source string, t core.Transaction) {
	fields := NewFields().
		WithTransaction(t).
		WithOperation(OpCreate).
		ToSlice()
	fields = append(fields, FieldSource, source)

	sl.logger.InfoContext(ctx, "Transaction created", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation, errorType string) {
	fields := NewFields().
		WithError(err).
		WithOperation(operation).
		WithErrorType(errorType)

	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
