package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/logger"
)

// Recovery turns a handler panic into a 500 response carrying the request's
// correlation ID. The panic is logged with the request-scoped logger when one
// is present.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log := logger.FromContext(r.Context())
					if log == slog.Default() {
						log = l
					}
					log.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					httputil.WriteError(w, r, apperrors.Internal(fmt.Errorf("panic: %v", rec)), l)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
