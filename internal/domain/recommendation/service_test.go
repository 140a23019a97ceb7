package recommendation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/internal/testutil"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

type fakeRecRepo struct {
	byID    map[string]*Recommendation
	created []*Recommendation
	updated []*Recommendation
}

func newFakeRecRepo() *fakeRecRepo {
	return &fakeRecRepo{byID: make(map[string]*Recommendation)}
}

func (f *fakeRecRepo) FindByID(_ context.Context, id string) (*Recommendation, error) {
	rec, ok := f.byID[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found")
	}
	return rec, nil
}

func (f *fakeRecRepo) Create(_ context.Context, rec *Recommendation) error {
	f.byID[rec.ID] = rec
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeRecRepo) Update(_ context.Context, rec *Recommendation) error {
	f.byID[rec.ID] = rec
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeRecRepo) ListPending(_ context.Context) ([]*Recommendation, error) {
	var out []*Recommendation
	for _, rec := range f.byID {
		if rec.Status == StatusPending {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecRepo) ListByEvaluation(_ context.Context, evaluationID string) ([]*Recommendation, error) {
	var out []*Recommendation
	for _, rec := range f.byID {
		if rec.EvaluationID == evaluationID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecRepo) CountByStatus(_ context.Context, status Status) (int64, error) {
	var n int64
	for _, rec := range f.byID {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeEvalRepo struct {
	bySupplier map[string]*evaluation.Evaluation
}

func (f *fakeEvalRepo) FindBySupplierID(_ context.Context, supplierID string) (*evaluation.Evaluation, error) {
	eval, ok := f.bySupplier[supplierID]
	if !ok {
		return nil, errors.New(errors.ErrCodeEvaluationNotFound, "evaluation not found")
	}
	return eval, nil
}

func (f *fakeEvalRepo) FindByID(_ context.Context, _ string) (*evaluation.Evaluation, error) {
	return nil, errors.New(errors.ErrCodeEvaluationNotFound, "evaluation not found")
}
func (f *fakeEvalRepo) Create(_ context.Context, _ *evaluation.Evaluation) error { return nil }
func (f *fakeEvalRepo) Update(_ context.Context, _ *evaluation.Evaluation) error { return nil }
func (f *fakeEvalRepo) Query(_ context.Context, _ evaluation.Filter) ([]*evaluation.Evaluation, error) {
	return nil, nil
}
func (f *fakeEvalRepo) Stats(_ context.Context) (*evaluation.StatsBreakdown, error) {
	return &evaluation.StatsBreakdown{}, nil
}

func newService(t *testing.T, composite float64) (*Service, *fakeRecRepo) {
	t.Helper()
	eval, err := evaluation.NewEvaluation("sup-1", evaluation.RelationNew, evaluation.IdentifiedBySelfSubmission)
	require.NoError(t, err)
	eval.CompositeScore = composite

	recs := newFakeRecRepo()
	evals := &fakeEvalRepo{bySupplier: map[string]*evaluation.Evaluation{"sup-1": eval}}
	return NewService(recs, evals, nil, logging.NewNopLogger()), recs
}

func TestService_Create(t *testing.T) {
	svc, repo := newService(t, 85)

	rec, err := svc.Create(context.Background(), "sup-1", "analyst", TypePrequalification, "why not")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, rec.Priority)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Len(t, repo.created, 1)
}

func TestService_Create_UnknownSupplier(t *testing.T) {
	svc, repo := newService(t, 85)

	_, err := svc.Create(context.Background(), "sup-missing", "analyst", TypeAudit, "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Empty(t, repo.created)
}

func TestService_Review(t *testing.T) {
	svc, repo := newService(t, 70)
	rec, err := svc.Create(context.Background(), "sup-1", "analyst", TypeAudit, "")
	require.NoError(t, err)

	reviewed, err := svc.Review(context.Background(), rec.ID, DecisionApprove, "reviewer", "ok")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, reviewed.Status)
	assert.Len(t, repo.updated, 1)

	// A second review of the decided record is rejected and not persisted.
	_, err = svc.Review(context.Background(), rec.ID, DecisionReject, "reviewer", "")
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.Len(t, repo.updated, 1)
}

func TestService_WorkflowIsCounted(t *testing.T) {
	eval, err := evaluation.NewEvaluation("sup-1", evaluation.RelationNew, evaluation.IdentifiedBySelfSubmission)
	require.NoError(t, err)
	eval.CompositeScore = 85

	created := testutil.NewCounterSpy()
	decided := testutil.NewCounterSpy()
	m := prometheus.NewNopAppMetrics()
	m.RecommendationsTotal = created
	m.ReviewDecisionsTotal = decided

	recs := newFakeRecRepo()
	evals := &fakeEvalRepo{bySupplier: map[string]*evaluation.Evaluation{"sup-1": eval}}
	svc := NewService(recs, evals, m, logging.NewNopLogger())

	rec, err := svc.Create(context.Background(), "sup-1", "analyst", TypePrequalification, "strong scores")
	require.NoError(t, err)
	assert.Equal(t, 1.0, created.Value(string(TypePrequalification), string(rec.Priority)))

	_, err = svc.Review(context.Background(), rec.ID, DecisionApprove, "reviewer", "ok")
	require.NoError(t, err)
	assert.Equal(t, 1.0, decided.Value(string(DecisionApprove)))
}

func TestService_Review_UnknownID(t *testing.T) {
	svc, _ := newService(t, 70)
	_, err := svc.Review(context.Background(), "nope", DecisionApprove, "reviewer", "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestService_ListPending(t *testing.T) {
	svc, _ := newService(t, 70)
	rec, err := svc.Create(context.Background(), "sup-1", "analyst", TypeAudit, "")
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rec.ID, pending[0].ID)

	_, err = svc.Review(context.Background(), rec.ID, DecisionReject, "reviewer", "")
	require.NoError(t, err)

	pending, err = svc.ListPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
