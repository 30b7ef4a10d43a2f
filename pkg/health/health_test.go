package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLivenessHandler_AlwaysReturns200(t *testing.T) {
	h := NewHandler()
	h.Register("redis", func(ctx context.Context) error { return fmt.Errorf("down") })

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Empty(t, resp.Checks)
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
	assert.Equal(t, StatusUp, resp.Checks["redis"].Status)
	assert.NotEmpty(t, resp.Checks["redis"].Latency)
}

func TestReadinessHandler_OneDown(t *testing.T) {
	h := NewHandler()
	h.Register("postgres", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return fmt.Errorf("connection refused") })

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, StatusUp, resp.Checks["postgres"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Error)
}

func TestCheck_NoCheckers(t *testing.T) {
	resp := NewHandler().Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestRegister_ReplacesExisting(t *testing.T) {
	h := NewHandler()
	h.Register("kafka", func(ctx context.Context) error { return fmt.Errorf("down") })
	h.Register("kafka", func(ctx context.Context) error { return nil })

	resp := h.Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
	assert.Len(t, resp.Checks, 1)
}

func TestCheck_PassesDeadline(t *testing.T) {
	h := NewHandler()
	h.Register("deadline", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return fmt.Errorf("no deadline")
		}
		return nil
	})

	resp := h.Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
}
