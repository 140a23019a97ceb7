package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	application "github.com/turtacn/VendorIQ-Intelligence/internal/application/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// AnalysisService is the slice of the orchestrator the handler needs.
type AnalysisService interface {
	Analyze(ctx context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*application.Result, error)
	AnalyzeAsync(ctx context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*application.Result, error)
	AnalyzeBatch(ctx context.Context, supplierIDs []string, trigger evaluation.AnalysisTrigger) []application.BatchStatus
}

// EvaluationQueries is the read side consumed by the handler.
type EvaluationQueries interface {
	Search(ctx context.Context, params application.SearchParams) (*application.SearchResult, error)
	GetEvaluation(ctx context.Context, supplierID string) (*application.EvaluationView, error)
	ListExternalSources(ctx context.Context, supplierID string) ([]*evaluation.ExternalSourceRecord, error)
	ListAnalysisLogs(ctx context.Context, supplierID string) ([]*evaluation.AnalysisLog, error)
	Stats(ctx context.Context) (*application.DashboardStats, error)
	FilterOptions(ctx context.Context) *application.FilterOptions
}

// EvaluationHandler exposes analysis and evaluation query endpoints.
type EvaluationHandler struct {
	analyses AnalysisService
	queries  EvaluationQueries
	logger   logging.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(analyses AnalysisService, queries EvaluationQueries, logger logging.Logger) *EvaluationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &EvaluationHandler{analyses: analyses, queries: queries, logger: logger}
}

// BatchAnalyzeRequest asks for evaluation of several suppliers.
type BatchAnalyzeRequest struct {
	SupplierIDs []string `json:"supplier_ids"`
}

// BatchAnalyzeResponse reports the per-supplier dispatch status.
type BatchAnalyzeResponse struct {
	Statuses []application.BatchStatus `json:"statuses"`
}

// Analyze triggers evaluation of one supplier.  With async=true the request
// is accepted and runs in the background.
func (h *EvaluationHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")
	if supplierID == "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "supplier id is required")
		return
	}
	force := parseBool(r, "force")

	if parseBool(r, "async") {
		result, err := h.analyses.AnalyzeAsync(r.Context(), supplierID, force, evaluation.TriggerManual)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, result)
		return
	}

	result, err := h.analyses.Analyze(r.Context(), supplierID, force, evaluation.TriggerManual)
	if err != nil {
		h.logger.Error("analysis request failed",
			logging.String("supplier_id", supplierID), logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AnalyzeBatch triggers evaluation of several suppliers in the background.
func (h *EvaluationHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "invalid request body")
		return
	}
	if len(req.SupplierIDs) == 0 {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "supplier_ids is required")
		return
	}

	statuses := h.analyses.AnalyzeBatch(r.Context(), req.SupplierIDs, evaluation.TriggerManual)
	writeJSON(w, http.StatusAccepted, BatchAnalyzeResponse{Statuses: statuses})
}

// GetEvaluation returns the evaluation view for one supplier.
func (h *EvaluationHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")
	view, err := h.queries.GetEvaluation(r.Context(), supplierID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListSources returns the external source records collected for a supplier.
func (h *EvaluationHandler) ListSources(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")
	records, err := h.queries.ListExternalSources(r.Context(), supplierID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sources": records})
}

// ListLogs returns the analysis history for a supplier.
func (h *EvaluationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	supplierID := chi.URLParam(r, "supplierID")
	logs, err := h.queries.ListAnalysisLogs(r.Context(), supplierID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// Search returns evaluations bucketed for the review board.
func (h *EvaluationHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r)
	params := application.SearchParams{
		Query:          r.URL.Query().Get("query"),
		RelationType:   evaluation.RelationType(r.URL.Query().Get("relation_type")),
		Recommendation: evaluation.Recommendation(r.URL.Query().Get("recommendation")),
		State:          evaluation.PrequalificationState(r.URL.Query().Get("state")),
		Country:        r.URL.Query().Get("country"),
		Limit:          limit,
		Offset:         offset,
	}
	if v := r.URL.Query().Get("min_composite"); v != "" {
		if f, err := parseFloat(v); err == nil {
			params.MinComposite = f
		} else {
			writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "min_composite must be a number")
			return
		}
	}

	result, err := h.queries.Search(r.Context(), params)
	if err != nil {
		h.logger.Error("search failed", logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// FilterOptions returns the enumerations the search UI can filter on.
func (h *EvaluationHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queries.FilterOptions(r.Context()))
}

// DashboardStats returns aggregate evaluation statistics.
func (h *EvaluationHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Stats(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
