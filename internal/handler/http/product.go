package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/filter"
	"github.com/flexfit/storefront/internal/notify"
	"github.com/flexfit/storefront/internal/service"
	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/pagination"
	"github.com/flexfit/storefront/pkg/slug"
)

// ProductHandler serves the read-only catalog endpoints. They do not need a
// session.
type ProductHandler struct {
	catalog  *catalog.Catalog
	products *service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(cat *catalog.Catalog, products *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:  cat,
		products: products,
		logger:   logger,
	}
}

// ProductDetail is a product together with its related products.
type ProductDetail struct {
	Product domain.Product   `json:"product"`
	Related []domain.Product `json:"related"`
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	products := h.catalog.All()
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		products = h.catalog.Search(q)
	}
	products = filter.Apply(products, criteria)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.Slice(products, pagination.FromRequest(r)),
	})
}

// Featured handles GET /api/v1/products/featured
func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.catalog.Featured()})
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := notify.NewQueue(notify.DefaultQueueSize)

	p, ok := h.products.Product(r.Context(), id, q)
	if !ok {
		respondError(w, r, q, apperrors.NotFound("product", id), h.logger)
		return
	}

	respond(w, http.StatusOK, q, ProductDetail{
		Product: p,
		Related: h.products.Related(r.Context(), p, q),
	})
}

// Related handles GET /api/v1/products/{id}/related
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	q := notify.NewQueue(notify.DefaultQueueSize)

	p, ok := h.products.Product(r.Context(), id, q)
	if !ok {
		respondError(w, r, q, apperrors.NotFound("product", id), h.logger)
		return
	}

	respond(w, http.StatusOK, q, h.products.Related(r.Context(), p, q))
}

// Categories handles GET /api/v1/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.catalog.Categories()})
}

// CategoryProducts handles GET /api/v1/categories/{category}/products. The
// path segment is slugified, so "Strength" and "strength" name the same
// category.
func (h *ProductHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	id := slug.Generate(chi.URLParam(r, "category"))
	if _, ok := h.catalog.Category(id); !ok {
		httputil.WriteError(w, r, apperrors.NotFound("category", id), h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.Slice(h.catalog.ByCategory(id), pagination.FromRequest(r)),
	})
}

// Facets handles GET /api/v1/facets
func (h *ProductHandler) Facets(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.catalog.Facets(h.catalog.All())})
}

// criteriaFromQuery reads category, min_price, max_price and in_stock.
// Absent or empty parameters place no constraint.
func criteriaFromQuery(r *http.Request) (domain.Criteria, error) {
	var c domain.Criteria
	q := r.URL.Query()

	if v := q.Get("category"); v != "" {
		c.Category = &v
	}
	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"min_price", &c.MinPrice},
		{"max_price", &c.MaxPrice},
	} {
		v := q.Get(bound.name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return domain.Criteria{}, apperrors.InvalidInput(bound.name + " must be a number")
		}
		*bound.dst = &d
	}
	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Criteria{}, apperrors.InvalidInput("in_stock must be true or false")
		}
		c.InStock = &b
	}
	return c, nil
}
