package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/recommendation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// RecommendationService is the slice of the review workflow the handler needs.
type RecommendationService interface {
	Create(ctx context.Context, supplierID, actor string, recType recommendation.Type, justification string) (*recommendation.Recommendation, error)
	Review(ctx context.Context, recommendationID string, decision recommendation.Decision, reviewer, notes string) (*recommendation.Recommendation, error)
	ListPending(ctx context.Context) ([]*recommendation.Recommendation, error)
}

// RecommendationHandler exposes the recommendation review workflow.
type RecommendationHandler struct {
	svc    RecommendationService
	logger logging.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(svc RecommendationService, logger logging.Logger) *RecommendationHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RecommendationHandler{svc: svc, logger: logger}
}

// CreateRecommendationRequest opens a recommendation for review.
type CreateRecommendationRequest struct {
	SupplierID    string `json:"supplier_id"`
	Actor         string `json:"actor"`
	Type          string `json:"type"`
	Justification string `json:"justification,omitempty"`
}

// ReviewRecommendationRequest applies a reviewer decision.
type ReviewRecommendationRequest struct {
	Decision string `json:"decision"`
	Reviewer string `json:"reviewer"`
	Notes    string `json:"notes,omitempty"`
}

// Create opens a recommendation for the supplier's current evaluation.
func (h *RecommendationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "invalid request body")
		return
	}
	if req.SupplierID == "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "supplier_id is required")
		return
	}
	if req.Actor == "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "actor is required")
		return
	}

	rec, err := h.svc.Create(r.Context(), req.SupplierID, req.Actor, recommendation.Type(req.Type), req.Justification)
	if err != nil {
		h.logger.Error("failed to create recommendation",
			logging.String("supplier_id", req.SupplierID), logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Review applies a decision to a pending recommendation.
func (h *RecommendationHandler) Review(w http.ResponseWriter, r *http.Request) {
	recommendationID := chi.URLParam(r, "recommendationID")
	if recommendationID == "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "recommendation id is required")
		return
	}
	var req ReviewRecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "invalid request body")
		return
	}
	if req.Reviewer == "" {
		writeError(w, http.StatusBadRequest, errors.ErrCodeValidation, "reviewer is required")
		return
	}

	rec, err := h.svc.Review(r.Context(), recommendationID, recommendation.Decision(req.Decision), req.Reviewer, req.Notes)
	if err != nil {
		h.logger.Error("failed to review recommendation",
			logging.String("recommendation_id", recommendationID), logging.Err(err))
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListPending returns the review queue ordered by priority.
func (h *RecommendationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"recommendations": recs})
}
