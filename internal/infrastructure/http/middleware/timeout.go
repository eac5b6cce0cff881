package middleware

import (
	"context"
	"net/http"
	"time"
)

// BulkTimeout gives long running endpoints such as retry-all and the history
// export a longer deadline than the server-wide WriteTimeout. It extends both
// the request context and the connection write deadline.
func BulkTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if timeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			// Recorders and other writers without deadline support return
			// http.ErrNotSupported, which leaves the server default in place.
			_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(timeout))

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
