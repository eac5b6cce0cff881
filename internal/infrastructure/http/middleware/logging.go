package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "italiancorner/mydata_core/internal/infrastructure/context"
)

// RequestIDHeader echoes the correlation id back to the caller so a front
// desk report can be matched with the outbound call log.
const RequestIDHeader = "X-Request-Id"

// RequestLogger logs one line per request. The chi request id becomes the
// correlation id of every outbound call made while serving it. 5xx responses
// log at error level and 4xx at warn.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := r.Context()
			requestID := chimw.GetReqID(ctx)
			if requestID != "" {
				ctx = ctxutil.WithCorrelationID(ctx, requestID)
				w.Header().Set(RequestIDHeader, requestID)
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(time.Since(start).Microseconds()) / 1000,
				"bytes", ww.BytesWritten(),
			}
			if requestID != "" {
				attrs = append(attrs, "correlation_id", requestID)
			}

			switch {
			case status >= 500:
				log.Error("HTTP request", attrs...)
			case status >= 400:
				log.Warn("HTTP request", attrs...)
			default:
				log.Info("HTTP request", attrs...)
			}
		})
	}
}
