package http

import (
	"log/slog"
	"net/http"

	"github.com/flexfit/storefront/internal/contact"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/internal/service"
	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/validator"
)

// ContactHandler accepts contact form submissions.
type ContactHandler struct {
	service *service.ContactService
	logger  *slog.Logger
}

// NewContactHandler creates a new contact HTTP handler.
func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{service: svc, logger: logger}
}

// ContactRequest is the JSON request body of the contact form.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Submit handles POST /api/v1/contact. The outcome is always reported in the
// body; a rejected or undelivered message answers 422 or 502.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if err := validator.DecodeJSON(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	msg := contact.Message{Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message}
	res := h.service.Submit(r.Context(), msg)

	q := notify.NewQueue(1)
	status := http.StatusOK
	switch {
	case res.Success:
		q.Notify(r.Context(), notify.Success(res.Message))
	case res.Message == contact.MessageFailed:
		status = http.StatusBadGateway
		q.Notify(r.Context(), notify.Error(res.Message))
	default:
		status = http.StatusUnprocessableEntity
		q.Notify(r.Context(), notify.Error(res.Message))
	}
	respond(w, status, q, res)
}
