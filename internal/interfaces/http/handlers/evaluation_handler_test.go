package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	application "github.com/turtacn/VendorIQ-Intelligence/internal/application/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

type fakeAnalysisService struct {
	result      *application.Result
	err         error
	batch       []application.BatchStatus
	lastForce   bool
	lastAsync   bool
	lastTrigger evaluation.AnalysisTrigger
}

func (f *fakeAnalysisService) Analyze(_ context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*application.Result, error) {
	f.lastForce = force
	f.lastTrigger = trigger
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &application.Result{SupplierID: supplierID, Status: application.StatusCompleted}, nil
}

func (f *fakeAnalysisService) AnalyzeAsync(_ context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*application.Result, error) {
	f.lastAsync = true
	f.lastForce = force
	f.lastTrigger = trigger
	if f.err != nil {
		return nil, f.err
	}
	return &application.Result{SupplierID: supplierID, Status: application.StatusQueued}, nil
}

func (f *fakeAnalysisService) AnalyzeBatch(_ context.Context, supplierIDs []string, trigger evaluation.AnalysisTrigger) []application.BatchStatus {
	f.lastTrigger = trigger
	if f.batch != nil {
		return f.batch
	}
	statuses := make([]application.BatchStatus, len(supplierIDs))
	for i, id := range supplierIDs {
		statuses[i] = application.BatchStatus{SupplierID: id, Status: application.StatusQueued}
	}
	return statuses
}

type fakeQueries struct {
	view       *application.EvaluationView
	searchRes  *application.SearchResult
	stats      *application.DashboardStats
	err        error
	lastParams application.SearchParams
}

func (f *fakeQueries) Search(_ context.Context, params application.SearchParams) (*application.SearchResult, error) {
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	if f.searchRes != nil {
		return f.searchRes, nil
	}
	return &application.SearchResult{}, nil
}

func (f *fakeQueries) GetEvaluation(_ context.Context, supplierID string) (*application.EvaluationView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

func (f *fakeQueries) ListExternalSources(context.Context, string) ([]*evaluation.ExternalSourceRecord, error) {
	return nil, f.err
}

func (f *fakeQueries) ListAnalysisLogs(context.Context, string) ([]*evaluation.AnalysisLog, error) {
	return nil, f.err
}

func (f *fakeQueries) Stats(context.Context) (*application.DashboardStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func (f *fakeQueries) FilterOptions(context.Context) *application.FilterOptions {
	return &application.FilterOptions{}
}

func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestEvaluationHandler_Analyze(t *testing.T) {
	svc := &fakeAnalysisService{}
	h := NewEvaluationHandler(svc, &fakeQueries{}, nil)

	req := withChiParam(httptest.NewRequest("POST", "/api/v1/suppliers/sup-1/analyze?force=true", nil), "supplierID", "sup-1")
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.lastForce)
	assert.Equal(t, evaluation.TriggerManual, svc.lastTrigger)

	var result application.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "sup-1", result.SupplierID)
	assert.Equal(t, application.StatusCompleted, result.Status)
}

func TestEvaluationHandler_AnalyzeAsync(t *testing.T) {
	svc := &fakeAnalysisService{}
	h := NewEvaluationHandler(svc, &fakeQueries{}, nil)

	req := withChiParam(httptest.NewRequest("POST", "/api/v1/suppliers/sup-1/analyze?async=true", nil), "supplierID", "sup-1")
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, svc.lastAsync)
}

func TestEvaluationHandler_AnalyzeAsyncUnknownSupplier(t *testing.T) {
	svc := &fakeAnalysisService{
		err: errors.New(errors.ErrCodeSupplierNotFound, "supplier not found"),
	}
	h := NewEvaluationHandler(svc, &fakeQueries{}, nil)

	req := withChiParam(httptest.NewRequest("POST", "/api/v1/suppliers/ghost/analyze?async=true", nil), "supplierID", "ghost")
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrCodeSupplierNotFound.String(), resp.Code)
}

func TestEvaluationHandler_AnalyzeConflict(t *testing.T) {
	svc := &fakeAnalysisService{
		err: errors.New(errors.ErrCodeEvaluationInProgress, "analysis already running"),
	}
	h := NewEvaluationHandler(svc, &fakeQueries{}, nil)

	req := withChiParam(httptest.NewRequest("POST", "/api/v1/suppliers/sup-1/analyze", nil), "supplierID", "sup-1")
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrCodeEvaluationInProgress.String(), resp.Code)
}

func TestEvaluationHandler_AnalyzeUnknownSupplier(t *testing.T) {
	svc := &fakeAnalysisService{
		err: errors.New(errors.ErrCodeSupplierNotFound, "supplier not found"),
	}
	h := NewEvaluationHandler(svc, &fakeQueries{}, nil)

	req := withChiParam(httptest.NewRequest("POST", "/api/v1/suppliers/ghost/analyze", nil), "supplierID", "ghost")
	w := httptest.NewRecorder()
	h.Analyze(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvaluationHandler_AnalyzeBatch(t *testing.T) {
	svc := &fakeAnalysisService{}
	h := NewEvaluationHandler(svc, &fakeQueries{}, nil)

	body := `{"supplier_ids":["sup-1","sup-2"]}`
	req := httptest.NewRequest("POST", "/api/v1/analyses/batch", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.AnalyzeBatch(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp BatchAnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Statuses, 2)
	assert.Equal(t, application.StatusQueued, resp.Statuses[0].Status)
}

func TestEvaluationHandler_AnalyzeBatch_EmptyBody(t *testing.T) {
	h := NewEvaluationHandler(&fakeAnalysisService{}, &fakeQueries{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/analyses/batch", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.AnalyzeBatch(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluationHandler_Search_ParamParsing(t *testing.T) {
	q := &fakeQueries{}
	h := NewEvaluationHandler(&fakeAnalysisService{}, q, nil)

	req := httptest.NewRequest("GET", "/api/v1/evaluations/search?query=pharma&relation_type=new&min_composite=80&limit=10&offset=5", nil)
	w := httptest.NewRecorder()
	h.Search(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pharma", q.lastParams.Query)
	assert.Equal(t, evaluation.RelationNew, q.lastParams.RelationType)
	assert.Equal(t, 80.0, q.lastParams.MinComposite)
	assert.Equal(t, 10, q.lastParams.Limit)
	assert.Equal(t, 5, q.lastParams.Offset)
}

func TestEvaluationHandler_Search_BadMinComposite(t *testing.T) {
	h := NewEvaluationHandler(&fakeAnalysisService{}, &fakeQueries{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/evaluations/search?min_composite=abc", nil)
	w := httptest.NewRecorder()
	h.Search(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluationHandler_GetEvaluation_NotFound(t *testing.T) {
	q := &fakeQueries{err: errors.New(errors.ErrCodeEvaluationNotFound, "no evaluation for supplier")}
	h := NewEvaluationHandler(&fakeAnalysisService{}, q, nil)

	req := withChiParam(httptest.NewRequest("GET", "/api/v1/suppliers/ghost/evaluation", nil), "supplierID", "ghost")
	w := httptest.NewRecorder()
	h.GetEvaluation(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvaluationHandler_DashboardStats(t *testing.T) {
	q := &fakeQueries{stats: &application.DashboardStats{TotalSuppliers: 7}}
	h := NewEvaluationHandler(&fakeAnalysisService{}, q, nil)

	req := httptest.NewRequest("GET", "/api/v1/dashboard/stats", nil)
	w := httptest.NewRecorder()
	h.DashboardStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats application.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(7), stats.TotalSuppliers)
}
