// Package logger wraps log/slog with the component and request tagging the
// server and CLI share.
package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json or text
	Environment string
}

// Logger is a slog.Logger with a few helpers.
type Logger struct {
	*slog.Logger
}

func New(cfg Config) *Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg Config, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(h)
	if cfg.Environment != "" {
		l = l.With("environment", cfg.Environment)
	}
	return &Logger{Logger: l}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.With("component", component)
}

// Fatal logs at error level and exits.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}

type ctxKey struct{}

// FromContext returns the request-scoped logger set by Middleware, or
// fallback when there is none.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return fallback
}

// RequestID returns the request ID Middleware assigned, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type requestIDKey struct{}

// Middleware tags each request with an ID (kept from the X-Request-ID header
// or freshly generated), echoes it back and logs the completed request.
func (l *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		reqLog := l.With("request_id", id, "method", r.Method, "path", r.URL.Path)
		ctx := context.WithValue(r.Context(), ctxKey{}, reqLog)
		ctx = context.WithValue(ctx, requestIDKey{}, id)

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		args := []any{"status", rw.status, "duration_ms", time.Since(start).Milliseconds()}
		switch {
		case rw.status >= 500:
			reqLog.Error("request completed", args...)
		case rw.status >= 400:
			reqLog.Warn("request completed", args...)
		default:
			reqLog.Info("request completed", args...)
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
