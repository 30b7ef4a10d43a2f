package middleware

import (
	"log/slog"
	"net/http"

	"github.com/flexfit/storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, session_id, trace_id and span_id. Handlers fetch it with
// logger.FromContext.
//
// Mount it after RequestLogging and Tracing. Routes behind RequireSession
// pick up the session ID from the header here as well, so the enriched logger
// carries it even though RequireSession runs later.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logger.SessionIDFromContext(ctx) == "" {
				if id := r.Header.Get(SessionHeader); ValidSessionID(id) {
					ctx = logger.WithSessionID(ctx, id)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
