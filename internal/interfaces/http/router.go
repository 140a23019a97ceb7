// Package http wires the REST surface of the platform.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/VendorIQ-Intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies that make
// up the complete route tree.
type RouterConfig struct {
	EvaluationHandler     *handlers.EvaluationHandler
	RecommendationHandler *handlers.RecommendationHandler
	HealthHandler         *handlers.HealthHandler

	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the HTTP route tree: public probes, the metrics endpoint,
// and the versioned API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.RequestMetrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerEvaluationRoutes(api, cfg.EvaluationHandler)
		registerRecommendationRoutes(api, cfg.RecommendationHandler)
	})

	return r
}

func registerEvaluationRoutes(r chi.Router, h *handlers.EvaluationHandler) {
	if h == nil {
		return
	}
	r.Route("/suppliers/{supplierID}", func(sr chi.Router) {
		sr.Post("/analyze", h.Analyze)
		sr.Get("/evaluation", h.GetEvaluation)
		sr.Get("/sources", h.ListSources)
		sr.Get("/logs", h.ListLogs)
	})
	r.Route("/evaluations", func(er chi.Router) {
		er.Get("/search", h.Search)
		er.Get("/filter-options", h.FilterOptions)
	})
	r.Post("/analyses/batch", h.AnalyzeBatch)
	r.Get("/dashboard/stats", h.DashboardStats)
}

func registerRecommendationRoutes(r chi.Router, h *handlers.RecommendationHandler) {
	if h == nil {
		return
	}
	r.Route("/recommendations", func(rr chi.Router) {
		rr.Post("/", h.Create)
		rr.Get("/pending", h.ListPending)
		rr.Post("/{recommendationID}/review", h.Review)
	})
}
