package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flexfit/storefront/internal/session"
	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/middleware"
)

type sessionCtxKey struct{}

// OpenSession loads the session named by the X-Session-ID header and stores
// it in the request context. It must run after middleware.RequireSession.
func OpenSession(manager *session.Manager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := manager.Open(r.Context(), middleware.SessionIDFromContext(r.Context()))
			if err != nil {
				httputil.WriteError(w, r, err, logger)
				return
			}
			ctx := context.WithValue(r.Context(), sessionCtxKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromContext returns the session stored by OpenSession.
func sessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionCtxKey{}).(*session.Session)
	return sess
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
