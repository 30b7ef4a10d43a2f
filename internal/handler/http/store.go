package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/checkout"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/internal/session"
	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/middleware"
	"github.com/flexfit/storefront/pkg/pagination"
	"github.com/flexfit/storefront/pkg/validator"
)

const msgOutOfStock = "Sorry, this product is out of stock"

// StoreHandler serves the session-scoped cart, liked and filter endpoints.
type StoreHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

// NewStoreHandler creates a new store HTTP handler.
func NewStoreHandler(sessions *session.Manager, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
// A missing or non-positive quantity adds one unit.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityRequest is the JSON request body for setting a line item's
// quantity. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// --- Response views ---

// CartView is the cart with its derived totals.
type CartView struct {
	Items   domain.Cart         `json:"items"`
	Count   int                 `json:"count"`
	Total   decimal.Decimal     `json:"total"`
	Summary domain.OrderSummary `json:"summary"`
}

// LikedView is the liked set resolved against the catalog.
type LikedView struct {
	IDs      []string         `json:"ids"`
	Products []domain.Product `json:"products"`
	Count    int              `json:"count"`
}

// ToggleResult reports the liked state after a toggle.
type ToggleResult struct {
	ProductID string `json:"product_id"`
	Liked     bool   `json:"liked"`
	Count     int    `json:"count"`
}

func cartView(sess *session.Session) CartView {
	total := sess.Store.CartTotal()
	return CartView{
		Items:   sess.Store.Cart(),
		Count:   sess.Store.CartCount(),
		Total:   total,
		Summary: checkout.Summary(total),
	}
}

// --- Filters ---

// GetFilters handles GET /api/v1/filters
func (h *StoreHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respond(w, http.StatusOK, sess.Notifications, sess.Store.Filters())
}

// PatchFilters handles PATCH /api/v1/filters
func (h *StoreHandler) PatchFilters(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var patch domain.CriteriaPatch
	if err := validator.DecodeJSON(r, &patch); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	respond(w, http.StatusOK, sess.Notifications, sess.Store.ApplyFilters(patch))
}

// ResetFilters handles DELETE /api/v1/filters
func (h *StoreHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	sess.Store.ResetFilters()
	respond(w, http.StatusOK, sess.Notifications, sess.Store.Filters())
}

// FilteredProducts handles GET /api/v1/filters/products
func (h *StoreHandler) FilteredProducts(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respond(w, http.StatusOK, sess.Notifications,
		pagination.Slice(sess.Store.FilteredProducts(), pagination.FromRequest(r)))
}

// --- Cart ---

// GetCart handles GET /api/v1/cart
func (h *StoreHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respond(w, http.StatusOK, sess.Notifications, cartView(sess))
}

// AddItem handles POST /api/v1/cart/items
func (h *StoreHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	p, ok := sess.Store.ProductByID(req.ProductID)
	if !ok {
		respondError(w, r, sess.Notifications, apperrors.NotFound("product", req.ProductID), h.logger)
		return
	}
	if !p.InStock {
		sess.Notifications.Notify(r.Context(), notify.Error(msgOutOfStock))
		respondError(w, r, sess.Notifications, apperrors.Conflict("product is out of stock"), h.logger)
		return
	}

	sess.Store.AddToCart(r.Context(), p, req.Quantity)
	respond(w, http.StatusOK, sess.Notifications, cartView(sess))
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *StoreHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sess.Store.UpdateQuantity(r.Context(), chi.URLParam(r, "productId"), *req.Quantity)
	respond(w, http.StatusOK, sess.Notifications, cartView(sess))
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *StoreHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	sess.Store.RemoveFromCart(r.Context(), chi.URLParam(r, "productId"))
	respond(w, http.StatusOK, sess.Notifications, cartView(sess))
}

// ClearCart handles DELETE /api/v1/cart
func (h *StoreHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	sess.ClearCart(r.Context())
	respond(w, http.StatusOK, sess.Notifications, cartView(sess))
}

// --- Liked ---

// GetLiked handles GET /api/v1/liked
func (h *StoreHandler) GetLiked(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respond(w, http.StatusOK, sess.Notifications, LikedView{
		IDs:      sess.Store.Liked(),
		Products: sess.Store.LikedProducts(),
		Count:    sess.Store.LikedCount(),
	})
}

// ToggleLike handles POST /api/v1/liked/{productId}/toggle
func (h *StoreHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	id := chi.URLParam(r, "productId")

	liked := sess.Store.ToggleLike(r.Context(), id)
	respond(w, http.StatusOK, sess.Notifications, ToggleResult{
		ProductID: id,
		Liked:     liked,
		Count:     sess.Store.LikedCount(),
	})
}

// --- Session ---

// DeleteSession handles DELETE /api/v1/session. The session is closed if
// open and its stored cart and liked set are deleted.
func (h *StoreHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionIDFromContext(r.Context())
	if err := h.sessions.Close(r.Context(), id, true); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "closed"}})
}
