package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
)

// RequestMetrics records per-request counters and durations.  The path label
// is the chi route pattern, not the raw URL, to keep label cardinality
// bounded.
func RequestMetrics(metrics *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			metrics.HTTPActiveRequests.WithLabelValues(r.Method).Inc()
			start := time.Now()

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			metrics.HTTPActiveRequests.WithLabelValues(r.Method).Dec()

			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = "unmatched"
			}
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration.Seconds())
		})
	}
}
