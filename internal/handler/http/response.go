package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/flexfit/storefront/internal/checkout"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/pkg/httputil"
)

// notes converts queued notifications into their wire form.
func notes(q *notify.Queue) []httputil.Notification {
	if q == nil {
		return nil
	}
	drained := q.Drain()
	if len(drained) == 0 {
		return nil
	}
	out := make([]httputil.Notification, len(drained))
	for i, n := range drained {
		out[i] = httputil.Notification{Level: string(n.Level), Message: n.Message}
	}
	return out
}

// respond writes data together with every notification raised while the
// request was handled.
func respond(w http.ResponseWriter, status int, q *notify.Queue, data any) {
	httputil.WriteJSON(w, status, httputil.Response{Data: data, Notifications: notes(q)})
}

// respondError writes err and the pending notifications. A rejected shipping
// form additionally names the offending field.
func respondError(w http.ResponseWriter, r *http.Request, q *notify.Queue, err error, logger *slog.Logger) {
	var fe *checkout.FormError
	if errors.As(err, &fe) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Notifications: notes(q),
			Error: &httputil.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: fe.Message,
				Fields:  map[string]string{fe.Field: fe.Message},
			},
		})
		return
	}
	httputil.WriteErrorWithNotifications(w, r, err, notes(q), logger)
}
