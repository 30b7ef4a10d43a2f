package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric returns the first metric of c whose labels include labels.
func collectMetric(c prometheus.Collector, labels map[string]string) *dto.Metric {
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}
		have := make(map[string]string, len(d.GetLabel()))
		for _, lp := range d.GetLabel() {
			have[lp.GetName()] = lp.GetValue()
		}
		match := true
		for k, v := range labels {
			if have[k] != v {
				match = false
				break
			}
		}
		if match {
			return d
		}
	}
	return nil
}

func metricsRouter(service string, status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	router := metricsRouter("metrics-count", http.StatusOK)
	for _, id := range []string{"yoga-mat", "jump-rope", "gym-gloves"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	m := collectMetric(httpRequestsTotal, map[string]string{
		"service": "metrics-count", "method": "GET", "path": "/api/v1/products/{id}", "status": "200",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(3), m.GetCounter().GetValue())

	h := collectMetric(httpRequestDuration, map[string]string{"service": "metrics-count"})
	require.NotNil(t, h)
	assert.Equal(t, uint64(3), h.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_RecordsStatus(t *testing.T) {
	router := metricsRouter("metrics-status", http.StatusNotFound)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil))

	m := collectMetric(httpRequestsTotal, map[string]string{"service": "metrics-status", "status": "404"})
	require.NotNil(t, m)
}

func TestPrometheusMetrics_InFlightGauge(t *testing.T) {
	seen := float64(-1)
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-inflight"))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if m := collectMetric(httpRequestsInFlight, map[string]string{"service": "metrics-inflight"}); m != nil {
			seen = m.GetGauge().GetValue()
		}
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, float64(1), seen)
	m := collectMetric(httpRequestsInFlight, map[string]string{"service": "metrics-inflight"})
	require.NotNil(t, m)
	assert.Equal(t, float64(0), m.GetGauge().GetValue())
}

func TestPrometheusMetrics_ResponseSize(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-size"))
	r.Get("/api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":["strength"]}`))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	h := collectMetric(httpResponseSize, map[string]string{"service": "metrics-size", "path": "/api/v1/categories"})
	require.NotNil(t, h)
	assert.Equal(t, uint64(1), h.GetHistogram().GetSampleCount())
	assert.Equal(t, float64(21), h.GetHistogram().GetSampleSum())
}

type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestStatusRecorder_FlushAndUnwrap(t *testing.T) {
	inner := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
	rec := newStatusRecorder(inner)

	rec.Flush()
	assert.True(t, inner.flushed)
	assert.Same(t, inner, rec.Unwrap())
}

func TestStatusRecorder_FirstWriteHeaderWins(t *testing.T) {
	rec := newStatusRecorder(httptest.NewRecorder())
	_, _ = rec.Write([]byte("hello"))
	rec.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, rec.statusCode)
	assert.Equal(t, 5, rec.bytes)
}
