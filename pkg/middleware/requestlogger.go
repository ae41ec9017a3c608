package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hermannafesehbuma/khalifa-auto/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// session_id, user_id, trace_id and span_id, and stores it in the context
// for logger.FromContext.
//
// Mount it after RequestLogging and Tracing, and after any middleware that
// adds a session or user id.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
