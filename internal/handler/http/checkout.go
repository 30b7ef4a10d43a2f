package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/flexfit/storefront/internal/checkout"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/internal/session"
	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/validator"
)

// CheckoutHandler serves the checkout flow of the request's session.
type CheckoutHandler struct {
	logger *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{logger: logger}
}

// CheckoutView is the state of a checkout flow.
type CheckoutView struct {
	Step         domain.Step          `json:"step"`
	Form         domain.ShippingForm  `json:"form"`
	Processing   bool                 `json:"processing"`
	Summary      domain.OrderSummary  `json:"summary"`
	Items        domain.Cart          `json:"items"`
	Confirmation *domain.Confirmation `json:"confirmation,omitempty"`
}

func checkoutView(sess *session.Session, seq *checkout.Sequencer) CheckoutView {
	v := CheckoutView{
		Step:       seq.Step(),
		Form:       seq.Form(),
		Processing: seq.Processing(),
	}
	if conf, ok := seq.Confirmation(); ok {
		v.Confirmation = &conf
		v.Summary = conf.Summary
		v.Items = conf.Items
		return v
	}
	v.Summary = checkout.Summary(sess.Store.CartTotal())
	v.Items = sess.Store.Cart()
	return v
}

func errNoCheckout() error {
	return apperrors.Conflict("no checkout in progress")
}

// Enter handles POST /api/v1/checkout
func (h *CheckoutHandler) Enter(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	seq, err := sess.Checkout(r.Context())
	if err != nil {
		respondError(w, r, sess.Notifications, err, h.logger)
		return
	}
	respond(w, http.StatusOK, sess.Notifications, checkoutView(sess, seq))
}

// Get handles GET /api/v1/checkout
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	seq, err := sess.ActiveCheckout(r.Context())
	if err != nil {
		respondError(w, r, sess.Notifications, err, h.logger)
		return
	}
	respond(w, http.StatusOK, sess.Notifications, checkoutView(sess, seq))
}

// SubmitShipping handles POST /api/v1/checkout/shipping. An invalid form is
// kept on the flow and answered with 400 plus an error notification.
func (h *CheckoutHandler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var form domain.ShippingForm
	if err := validator.DecodeJSON(r, &form); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	seq, err := sess.ActiveCheckout(r.Context())
	if err != nil {
		respondError(w, r, sess.Notifications, err, h.logger)
		return
	}

	if err := seq.SubmitShipping(r.Context(), form); err != nil {
		var fe *checkout.FormError
		if errors.As(err, &fe) {
			sess.Notifications.Notify(r.Context(), notify.Error(fe.Message))
		}
		respondError(w, r, sess.Notifications, err, h.logger)
		return
	}
	respond(w, http.StatusOK, sess.Notifications, checkoutView(sess, seq))
}

// Back handles POST /api/v1/checkout/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	seq, err := sess.ActiveCheckout(r.Context())
	if err != nil {
		respondError(w, r, sess.Notifications, err, h.logger)
		return
	}
	if err := seq.Back(); err != nil {
		respondError(w, r, sess.Notifications, err, h.logger)
		return
	}
	respond(w, http.StatusOK, sess.Notifications, checkoutView(sess, seq))
}

// PlaceOrder handles POST /api/v1/checkout/order. The request blocks for the
// processing delay.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if _, err := sess.PlaceOrder(r.Context()); err != nil {
		respondError(w, r, sess.Notifications, err, h.logger)
		return
	}

	seq, ok := sess.CurrentCheckout()
	if !ok {
		respondError(w, r, sess.Notifications, errNoCheckout(), h.logger)
		return
	}
	respond(w, http.StatusCreated, sess.Notifications, checkoutView(sess, seq))
}

// Exit handles DELETE /api/v1/checkout
func (h *CheckoutHandler) Exit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	sess.ExitCheckout()
	respond(w, http.StatusOK, sess.Notifications, map[string]string{"status": "exited"})
}
