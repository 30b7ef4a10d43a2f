package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/logger"
)

// SessionHeader names the header that identifies the shopper's session.
const SessionHeader = "X-Session-ID"

type sessionKey struct{}

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidSessionID reports whether id is usable as a storage namespace.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// RequireSession rejects requests without a well-formed X-Session-ID header
// and stores the ID in the request context.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if id == "" {
				writeSessionError(w, "missing "+SessionHeader+" header")
				return
			}
			if !ValidSessionID(id) {
				writeSessionError(w, "malformed "+SessionHeader+" header")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, id)
			ctx = logger.WithSessionID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the session ID set by RequireSession.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey{}).(string); ok {
		return v
	}
	return ""
}

func writeSessionError(w http.ResponseWriter, msg string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "MISSING_SESSION", Message: msg},
	})
}
