package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flexfit/storefront/pkg/errors"
	"github.com/flexfit/storefront/pkg/logger"
	"github.com/flexfit/storefront/pkg/validator"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON_SetsContentTypeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: "hello"})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hello", decode(t, rec).Data)
}

func TestWriteJSON_Notifications(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, Response{
		Data:          "ok",
		Notifications: []Notification{{Level: "success", Message: "Cart cleared"}},
	})

	resp := decode(t, rec)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "Cart cleared", resp.Notifications[0].Message)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/x", nil)

	WriteError(rec, req, apperrors.NotFound("product", "x"), logger.Discard())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "product with id x not found", resp.Error.Message)
}

func TestWriteError_CartEmptyRedirects(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)

	WriteError(rec, req, fmt.Errorf("enter checkout: %w", apperrors.CartEmpty()), logger.Discard())

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "CART_EMPTY", resp.Error.Code)
	assert.Equal(t, "/cart", resp.Error.Redirect)
}

func TestWriteError_SentinelErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("x: %w", apperrors.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"exists", apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"invalid", apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{"unavailable", apperrors.ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			WriteError(rec, req, tt.err, logger.Discard())

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode(t, rec).Error.Code)
		})
	}
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logger.WithCorrelationID(context.Background(), "corr-1"))

	WriteError(rec, req, apperrors.InvalidInput("bad"), logger.Discard())

	assert.Equal(t, "corr-1", decode(t, rec).Error.RequestID)
}

func TestWriteErrorWithNotifications(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	notes := []Notification{{Level: "error", Message: "Error fetching product"}}

	WriteErrorWithNotifications(rec, req, apperrors.ServiceUnavailable("down"), notes, logger.Discard())

	resp := decode(t, rec)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, notes, resp.Notifications)
}

func TestWriteValidationError(t *testing.T) {
	type req struct {
		Name string `json:"name" validate:"required"`
	}
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(req{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["name"])

	rec = httptest.NewRecorder()
	WriteValidationError(rec, fmt.Errorf("plain"))
	assert.Equal(t, "INVALID_INPUT", decode(t, rec).Error.Code)
}
