package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/checkout"
	contactmock "github.com/flexfit/storefront/internal/contact/mock"
	"github.com/flexfit/storefront/internal/domain"
	"github.com/flexfit/storefront/internal/preference"
	"github.com/flexfit/storefront/internal/preference/memory"
	"github.com/flexfit/storefront/internal/repository"
	"github.com/flexfit/storefront/internal/service"
	"github.com/flexfit/storefront/internal/session"
	"github.com/flexfit/storefront/pkg/health"
	"github.com/flexfit/storefront/pkg/httputil"
	"github.com/flexfit/storefront/pkg/logger"
	"github.com/flexfit/storefront/pkg/middleware"
)

// ============================================================================
// Mock ProductRepository
// ============================================================================

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByCategory(ctx context.Context, category, excludeID string) ([]domain.Product, error) {
	args := m.Called(ctx, category, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockProductRepository) SeedIfEmpty(ctx context.Context, products []domain.Product) (bool, error) {
	args := m.Called(ctx, products)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Test helpers
// ============================================================================

const testSession = "sess-1"

type testServer struct {
	handler  http.Handler
	sessions *session.Manager
	kv       *memory.KV
}

func newTestServer(t *testing.T, repo repository.ProductRepository) testServer {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	kv := memory.New()
	log := logger.Discard()
	sessions := session.NewManager(session.Options{
		Catalog:     cat,
		Preferences: preference.NewKVStore(kv),
		Checkout: checkout.Options{
			ProcessingDelay: -1,
			OrderNumbers:    checkout.OrderNumberFunc(func() string { return "123456" }),
		},
		Logger: log,
	})
	t.Cleanup(sessions.CloseAll)

	handler := NewRouter(Dependencies{
		Catalog:  cat,
		Sessions: sessions,
		Products: service.NewProductService(repo, cat, log),
		Contact:  service.NewContactService(contactmock.New("FlexFit", "support@flexfit.test", 0, log), log),
		Health:   health.NewHandler(),
		CORS:     middleware.DefaultCORSConfig(),
		Logger:   log,
	})

	return testServer{handler: handler, sessions: sessions, kv: kv}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(middleware.SessionHeader, testSession)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// decodeResponse reads the envelope and re-decodes its data into data when
// data is not nil.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data any) httputil.Response {
	t.Helper()

	var raw struct {
		Data          json.RawMessage         `json:"data"`
		Notifications []httputil.Notification `json:"notifications"`
		Error         *httputil.ErrorResponse `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return httputil.Response{Notifications: raw.Notifications, Error: raw.Error}
}

func messages(resp httputil.Response) []string {
	out := make([]string, 0, len(resp.Notifications))
	for _, n := range resp.Notifications {
		out = append(out, n.Message)
	}
	return out
}

type productPage struct {
	Items      []domain.Product `json:"items"`
	TotalCount int              `json:"total_count"`
}

func productIDs(products []domain.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func validShipping() domain.ShippingForm {
	return domain.ShippingForm{
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     "ana@example.com",
		Address:   "1 Main St",
		City:      "Springfield",
		State:     "IL",
		ZipCode:   "62701",
	}
}

// ============================================================================
// Health and session header
// ============================================================================

func TestHealthLive(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := srv.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionRoutes_RequireHeader(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "MISSING_SESSION", resp.Error.Code)
}

func TestContentTypeJSON_RejectsOtherTypes(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString("product_id=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(middleware.SessionHeader, testSession)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

// ============================================================================
// Catalog
// ============================================================================

func TestListProducts_QueryFilters(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/products?category=strength&in_stock=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page productPage
	decodeResponse(t, rec, &page)
	assert.Equal(t, []string{"barbell-olympic", "kettlebell-16kg", "dumbbell-set"}, productIDs(page.Items))
	assert.Equal(t, 3, page.TotalCount)
}

func TestListProducts_PriceRangeAndPaging(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/products?min_price=20&max_price=50&per_page=2&page=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page productPage
	decodeResponse(t, rec, &page)
	// resistance-bands, yoga-mat, protein-powder, foam-roller, gym-gloves
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, []string{"protein-powder", "foam-roller"}, productIDs(page.Items))
}

func TestListProducts_InvalidBound(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/products?min_price=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/products/unicorn", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProduct_WithRelated(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/products/kettlebell-16kg", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail ProductDetail
	decodeResponse(t, rec, &detail)
	assert.Equal(t, "Cast Iron Kettlebell 16kg", detail.Product.Name)
	assert.Equal(t, []string{"barbell-olympic", "dumbbell-set", "weight-plates"}, productIDs(detail.Related))
}

func TestGetProduct_BackendFailureNotifies(t *testing.T) {
	repo := new(mockProductRepository)
	repo.On("GetByID", mock.Anything, "yoga-mat").Return(nil, errors.New("backend down"))
	repo.On("GetByCategory", mock.Anything, "accessories", "yoga-mat").Return(nil, errors.New("backend down"))
	srv := newTestServer(t, repo)

	rec := srv.do(t, http.MethodGet, "/api/v1/products/yoga-mat", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail ProductDetail
	resp := decodeResponse(t, rec, &detail)
	assert.Equal(t, "yoga-mat", detail.Product.ID)
	assert.Len(t, detail.Related, 4)
	assert.Equal(t, []string{"Error fetching product", "Error fetching related products"}, messages(resp))
}

func TestCategoryProducts_SlugifiedPath(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/categories/Strength/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page productPage
	decodeResponse(t, rec, &page)
	assert.Equal(t, 4, page.TotalCount)

	rec = srv.do(t, http.MethodGet, "/api/v1/categories/yoga/products", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoriesAndFacets(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []catalog.Category
	decodeResponse(t, rec, &cats)
	assert.Len(t, cats, 5)

	rec = srv.do(t, http.MethodGet, "/api/v1/facets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var facets catalog.Facets
	decodeResponse(t, rec, &facets)
	assert.Equal(t, 11, facets.InStock)
	assert.Equal(t, 1, facets.OutOfStock)
}

// ============================================================================
// Cart
// ============================================================================

func TestAddItem_MergesAndNotifies(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "yoga-mat", Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "yoga-mat"})
	require.Equal(t, http.StatusOK, rec.Code)

	var cart CartView
	resp := decodeResponse(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Count)
	assert.Equal(t, "119.97", cart.Total.String())
	assert.Len(t, resp.Notifications, 1)
	assert.Contains(t, resp.Notifications[0].Message, "quantity in cart")
}

func TestAddItem_OutOfStock(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "weight-plates"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, []string{msgOutOfStock}, messages(resp))

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart CartView
	decodeResponse(t, rec, &cart)
	assert.Empty(t, cart.Items)
}

func TestAddItem_Validation(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, rec, nil).Error.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedBody_InvalidInput(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/api/v1/cart/items", "/api/v1/contact", "/api/v1/checkout/shipping"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"product_id":`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(middleware.SessionHeader, testSession)
			rec := httptest.NewRecorder()
			srv.handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeResponse(t, rec, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
			assert.Contains(t, resp.Error.Message, "decode request body")
		})
	}
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "jump-rope"})

	zero := 0
	rec := srv.do(t, http.MethodPut, "/api/v1/cart/items/jump-rope", UpdateQuantityRequest{Quantity: &zero})
	require.Equal(t, http.StatusOK, rec.Code)

	var cart CartView
	decodeResponse(t, rec, &cart)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Total.IsZero())
}

func TestUpdateQuantity_RequiresQuantity(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPut, "/api/v1/cart/items/jump-rope", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_PersistsAcrossSessions(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "foam-roller", Quantity: 2})

	require.NoError(t, srv.sessions.Close(context.Background(), testSession, false))

	rec := srv.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart CartView
	decodeResponse(t, rec, &cart)
	assert.Equal(t, 2, cart.Count)
}

func TestDeleteSession_PurgesStorage(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "foam-roller"})
	srv.do(t, http.MethodPost, "/api/v1/liked/foam-roller/toggle", nil)
	require.Equal(t, 2, srv.kv.Len())

	rec := srv.do(t, http.MethodDelete, "/api/v1/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, srv.kv.Len())
	assert.Zero(t, srv.sessions.Len())
}

// ============================================================================
// Liked and filters
// ============================================================================

func TestToggleLike(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/liked/yoga-mat/toggle", nil)
	var res ToggleResult
	resp := decodeResponse(t, rec, &res)
	assert.True(t, res.Liked)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []string{"Added Premium Yoga Mat to favorites"}, messages(resp))

	rec = srv.do(t, http.MethodGet, "/api/v1/liked", nil)
	var liked LikedView
	decodeResponse(t, rec, &liked)
	assert.Equal(t, []string{"yoga-mat"}, liked.IDs)
	require.Len(t, liked.Products, 1)

	rec = srv.do(t, http.MethodPost, "/api/v1/liked/yoga-mat/toggle", nil)
	decodeResponse(t, rec, &res)
	assert.False(t, res.Liked)
	assert.Zero(t, res.Count)
}

func TestFilters_PatchMergeAndReset(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPatch, "/api/v1/filters", map[string]any{"category": "strength"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPatch, "/api/v1/filters", map[string]any{"max_price": "100"})
	var criteria domain.Criteria
	decodeResponse(t, rec, &criteria)
	require.NotNil(t, criteria.Category)
	assert.Equal(t, "strength", *criteria.Category)
	require.NotNil(t, criteria.MaxPrice)

	rec = srv.do(t, http.MethodGet, "/api/v1/filters/products", nil)
	var page productPage
	decodeResponse(t, rec, &page)
	assert.Equal(t, []string{"kettlebell-16kg"}, productIDs(page.Items))

	rec = srv.do(t, http.MethodPatch, "/api/v1/filters", map[string]any{"category": nil})
	criteria = domain.Criteria{}
	decodeResponse(t, rec, &criteria)
	assert.Nil(t, criteria.Category)
	assert.NotNil(t, criteria.MaxPrice)

	rec = srv.do(t, http.MethodDelete, "/api/v1/filters", nil)
	criteria = domain.Criteria{}
	decodeResponse(t, rec, &criteria)
	assert.True(t, criteria.IsZero())
}

// ============================================================================
// Checkout
// ============================================================================

func TestCheckout_EmptyCartRedirects(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeResponse(t, rec, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CART_EMPTY", resp.Error.Code)
	assert.Equal(t, "/cart", resp.Error.Redirect)
	assert.Equal(t, []string{"Your cart is empty"}, messages(resp))
}

func TestCheckout_FullFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "kettlebell-16kg"})

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view CheckoutView
	decodeResponse(t, rec, &view)
	assert.Equal(t, domain.StepShipping, view.Step)
	assert.Equal(t, "8.95", view.Summary.Shipping.String())

	// Back is not allowed from shipping.
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/back", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STEP", decodeResponse(t, rec, nil).Error.Code)

	form := validShipping()
	form.FirstName = ""
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/shipping", form)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec, nil)
	assert.Equal(t, "Please enter your first name", resp.Error.Message)
	assert.Equal(t, "Please enter your first name", resp.Error.Fields["first_name"])
	assert.Equal(t, []string{"Please enter your first name"}, messages(resp))

	rec = srv.do(t, http.MethodGet, "/api/v1/checkout", nil)
	view = CheckoutView{}
	decodeResponse(t, rec, &view)
	assert.Equal(t, domain.StepShipping, view.Step)
	assert.Equal(t, "Silva", view.Form.LastName)

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/shipping", validShipping())
	require.Equal(t, http.StatusOK, rec.Code)
	view = CheckoutView{}
	decodeResponse(t, rec, &view)
	assert.Equal(t, domain.StepPayment, view.Step)

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/order", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	view = CheckoutView{}
	decodeResponse(t, rec, &view)
	assert.Equal(t, domain.StepConfirmation, view.Step)
	require.NotNil(t, view.Confirmation)
	assert.Equal(t, "123456", view.Confirmation.OrderNumber)
	assert.Equal(t, "59.99", view.Confirmation.Summary.Subtotal.String())
	require.Len(t, view.Items, 1)

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart CartView
	decodeResponse(t, rec, &cart)
	assert.Empty(t, cart.Items)

	// The confirmation stays visible with an empty cart.
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_PlaceOrderWithoutFlow(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/checkout/order", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_ClearCartEndsFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "jump-rope"})
	srv.do(t, http.MethodPost, "/api/v1/checkout", nil)

	rec := srv.do(t, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Cart cleared"}, messages(decodeResponse(t, rec, nil)))

	rec = srv.do(t, http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckout_RemovingLastItemEndsFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "kettlebell-16kg"})
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/checkout", nil).Code)
	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/v1/checkout/shipping", validShipping()).Code)

	rec := srv.do(t, http.MethodDelete, "/api/v1/cart/items/kettlebell-16kg", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CART_EMPTY", resp.Error.Code)
	assert.Equal(t, "/cart", resp.Error.Redirect)
	assert.Equal(t, []string{"Your cart is empty"}, messages(resp))

	// The flow is gone, not parked at payment.
	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/back", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decodeResponse(t, rec, nil).Error.Code)
}

func TestCheckout_PlaceOrderAfterCartEmptied(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "jump-rope"})
	srv.do(t, http.MethodPost, "/api/v1/checkout", nil)
	srv.do(t, http.MethodPost, "/api/v1/checkout/shipping", validShipping())

	zero := 0
	rec := srv.do(t, http.MethodPut, "/api/v1/cart/items/jump-rope", UpdateQuantityRequest{Quantity: &zero})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/checkout/order", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CART_EMPTY", decodeResponse(t, rec, nil).Error.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, "CONFLICT", decodeResponse(t, rec, nil).Error.Code)
}

// ============================================================================
// Contact
// ============================================================================

func TestContact(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(t, http.MethodPost, "/api/v1/contact", ContactRequest{
		Name: "Ana", Email: "ana@example.com", Message: "Do you ship abroad?",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec, nil)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "success", resp.Notifications[0].Level)

	rec = srv.do(t, http.MethodPost, "/api/v1/contact", ContactRequest{Name: "Ana", Email: "nope", Message: "hi"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"Please enter a valid email address"}, messages(decodeResponse(t, rec, nil)))
}

func TestPlaceOrder_HonoursRequestDeadline(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	sessions := session.NewManager(session.Options{
		Catalog:     cat,
		Preferences: preference.NewKVStore(memory.New()),
		Checkout:    checkout.Options{ProcessingDelay: time.Hour},
		Logger:      logger.Discard(),
	})
	t.Cleanup(sessions.CloseAll)
	handler := NewRouter(Dependencies{
		Catalog:  cat,
		Sessions: sessions,
		Products: service.NewProductService(nil, cat, logger.Discard()),
		Contact:  service.NewContactService(contactmock.New("FlexFit", "x@y.z", 0, logger.Discard()), logger.Discard()),
		Health:   health.NewHandler(),
		Logger:   logger.Discard(),
	})
	srv := testServer{handler: handler, sessions: sessions}

	srv.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{ProductID: "jump-rope"})
	srv.do(t, http.MethodPost, "/api/v1/checkout", nil)
	srv.do(t, http.MethodPost, "/api/v1/checkout/shipping", validShipping())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/order", nil).WithContext(ctx)
	req.Header.Set(middleware.SessionHeader, testSession)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEqual(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/cart", nil)
	var cart CartView
	decodeResponse(t, rec, &cart)
	assert.Len(t, cart.Items, 1)
}
