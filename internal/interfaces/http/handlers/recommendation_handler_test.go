package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/recommendation"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

type fakeRecommendationService struct {
	rec          *recommendation.Recommendation
	pending      []*recommendation.Recommendation
	err          error
	lastDecision recommendation.Decision
	lastReviewer string
}

func (f *fakeRecommendationService) Create(_ context.Context, supplierID, actor string, recType recommendation.Type, justification string) (*recommendation.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.rec != nil {
		return f.rec, nil
	}
	rec, err := recommendation.New("eval-1", supplierID, actor, recType, justification, 72)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (f *fakeRecommendationService) Review(_ context.Context, recommendationID string, decision recommendation.Decision, reviewer, notes string) (*recommendation.Recommendation, error) {
	f.lastDecision = decision
	f.lastReviewer = reviewer
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

func (f *fakeRecommendationService) ListPending(context.Context) ([]*recommendation.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pending, nil
}

func TestRecommendationHandler_Create(t *testing.T) {
	h := NewRecommendationHandler(&fakeRecommendationService{}, nil)

	body := `{"supplier_id":"sup-1","actor":"analyst","type":"audit","justification":"verify gmp"}`
	req := httptest.NewRequest("POST", "/api/v1/recommendations", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var rec recommendation.Recommendation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "sup-1", rec.SupplierID)
	assert.Equal(t, recommendation.TypeAudit, rec.Type)
}

func TestRecommendationHandler_Create_MissingFields(t *testing.T) {
	h := NewRecommendationHandler(&fakeRecommendationService{}, nil)

	for _, body := range []string{
		`{"actor":"analyst","type":"audit"}`,
		`{"supplier_id":"sup-1","type":"audit"}`,
		`not json`,
	} {
		req := httptest.NewRequest("POST", "/api/v1/recommendations", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.Create(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
}

func TestRecommendationHandler_Create_NoEvaluation(t *testing.T) {
	svc := &fakeRecommendationService{
		err: errors.New(errors.ErrCodeEvaluationNotFound, "no evaluation exists for supplier"),
	}
	h := NewRecommendationHandler(svc, nil)

	body := `{"supplier_id":"ghost","actor":"analyst","type":"audit"}`
	req := httptest.NewRequest("POST", "/api/v1/recommendations", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendationHandler_Review(t *testing.T) {
	reviewed, err := recommendation.New("eval-1", "sup-1", "analyst", recommendation.TypeAudit, "", 65)
	require.NoError(t, err)
	require.NoError(t, reviewed.Review(recommendation.DecisionApprove, "manager", "looks fine"))

	svc := &fakeRecommendationService{rec: reviewed}
	h := NewRecommendationHandler(svc, nil)

	body := `{"decision":"approve","reviewer":"manager","notes":"looks fine"}`
	req := withChiParam(httptest.NewRequest("POST", "/api/v1/recommendations/rec-1/review", strings.NewReader(body)), "recommendationID", "rec-1")
	w := httptest.NewRecorder()
	h.Review(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, recommendation.DecisionApprove, svc.lastDecision)
	assert.Equal(t, "manager", svc.lastReviewer)
}

func TestRecommendationHandler_Review_MissingReviewer(t *testing.T) {
	h := NewRecommendationHandler(&fakeRecommendationService{}, nil)

	body := `{"decision":"approve"}`
	req := withChiParam(httptest.NewRequest("POST", "/api/v1/recommendations/rec-1/review", strings.NewReader(body)), "recommendationID", "rec-1")
	w := httptest.NewRecorder()
	h.Review(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendationHandler_Review_NotFound(t *testing.T) {
	svc := &fakeRecommendationService{
		err: errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found"),
	}
	h := NewRecommendationHandler(svc, nil)

	body := `{"decision":"approve","reviewer":"manager"}`
	req := withChiParam(httptest.NewRequest("POST", "/api/v1/recommendations/ghost/review", strings.NewReader(body)), "recommendationID", "ghost")
	w := httptest.NewRecorder()
	h.Review(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecommendationHandler_ListPending(t *testing.T) {
	first, err := recommendation.New("eval-1", "sup-1", "system", recommendation.TypeRejection, "", 30)
	require.NoError(t, err)
	svc := &fakeRecommendationService{pending: []*recommendation.Recommendation{first}}
	h := NewRecommendationHandler(svc, nil)

	req := httptest.NewRequest("GET", "/api/v1/recommendations/pending", nil)
	w := httptest.NewRecorder()
	h.ListPending(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recommendations []*recommendation.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "sup-1", resp.Recommendations[0].SupplierID)
}
