package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestLogger stores a request-scoped logger in the context and logs request
// start and completion. Expects chi's RequestID and RealIP to run first.
func RequestLogger(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(FieldRequestID, middleware.GetReqID(r.Context()))
			ctx := context.WithValue(r.Context(), LoggerContextKey, reqLogger)
			r = r.WithContext(ctx)

			fields := NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
				WithClientIP(r.RemoteAddr)
			reqLogger.DebugContext(ctx, "HTTP request started", fields.ToSlice()...)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			if status >= 400 && status < 500 {
				level = slog.LevelWarn
			} else if status >= 500 {
				level = slog.LevelError
			}

			done := NewFields().
				WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
				WithHTTPResponse(status, time.Since(start).Milliseconds()).
				WithClientIP(r.RemoteAddr)
			reqLogger.Logger.Log(ctx, level, "HTTP request completed",
				append([]any{FieldComponent, ComponentHTTP}, done.ToSlice()...)...)
		})
	}
}
