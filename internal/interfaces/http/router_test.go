package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/internal/interfaces/http/handlers"
)

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		HealthHandler: handlers.NewHealthHandler("test"),
	})
}

func TestRouter_HealthEndpoints(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest("GET", "/api/v1/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_NilHandlersAreSkipped(t *testing.T) {
	router := NewRouter(RouterConfig{})

	req := httptest.NewRequest("POST", "/api/v1/suppliers/sup-1/analyze", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RequestMetricsAreRecorded(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, nil)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		HealthHandler:  handlers.NewHealthHandler("test"),
		Metrics:        prometheus.NewAppMetrics(collector),
		MetricsHandler: collector.Handler(),
	})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	scrape := httptest.NewRecorder()
	router.ServeHTTP(scrape, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, scrape.Code)
	assert.Contains(t, scrape.Body.String(), "http_requests_total")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := NewRouter(RouterConfig{
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	})

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# metrics")
}
