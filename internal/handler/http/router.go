package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/service"
	"github.com/flexfit/storefront/internal/session"
	"github.com/flexfit/storefront/pkg/health"
	"github.com/flexfit/storefront/pkg/middleware"
)

const (
	serviceName           = "storefront"
	defaultRequestTimeout = 30 * time.Second
)

// Dependencies are the collaborators the router dispatches to.
type Dependencies struct {
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Products *service.ProductService
	Contact  *service.ContactService
	Health   *health.Handler
	CORS     middleware.CORSConfig
	Logger   *slog.Logger

	// RequestTimeout cancels the request context; zero means 30s.
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(deps.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	productHandler := NewProductHandler(deps.Catalog, deps.Products, logger)
	storeHandler := NewStoreHandler(deps.Sessions, logger)
	checkoutHandler := NewCheckoutHandler(logger)
	contactHandler := NewContactHandler(deps.Contact, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Catalog endpoints
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/featured", productHandler.Featured)
		r.Get("/products/{id}", productHandler.GetProduct)
		r.Get("/products/{id}/related", productHandler.Related)
		r.Get("/categories", productHandler.Categories)
		r.Get("/categories/{category}/products", productHandler.CategoryProducts)
		r.Get("/facets", productHandler.Facets)

		r.Post("/contact", contactHandler.Submit)

		// Session-scoped endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession())

			r.Delete("/session", storeHandler.DeleteSession)

			r.Group(func(r chi.Router) {
				r.Use(OpenSession(deps.Sessions, logger))

				r.Get("/filters", storeHandler.GetFilters)
				r.Patch("/filters", storeHandler.PatchFilters)
				r.Delete("/filters", storeHandler.ResetFilters)
				r.Get("/filters/products", storeHandler.FilteredProducts)

				r.Get("/cart", storeHandler.GetCart)
				r.Delete("/cart", storeHandler.ClearCart)
				r.Post("/cart/items", storeHandler.AddItem)
				r.Put("/cart/items/{productId}", storeHandler.UpdateItemQuantity)
				r.Delete("/cart/items/{productId}", storeHandler.RemoveItem)

				r.Get("/liked", storeHandler.GetLiked)
				r.Post("/liked/{productId}/toggle", storeHandler.ToggleLike)

				r.Post("/checkout", checkoutHandler.Enter)
				r.Get("/checkout", checkoutHandler.Get)
				r.Delete("/checkout", checkoutHandler.Exit)
				r.Post("/checkout/shipping", checkoutHandler.SubmitShipping)
				r.Post("/checkout/back", checkoutHandler.Back)
				r.Post("/checkout/order", checkoutHandler.PlaceOrder)
			})
		})
	})

	return r
}
