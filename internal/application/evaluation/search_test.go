package evaluation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/recommendation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
	"github.com/turtacn/VendorIQ-Intelligence/internal/testutil"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

type fakeSourceRepo struct {
	mu      sync.Mutex
	records []*evaluation.ExternalSourceRecord
}

func (r *fakeSourceRepo) Append(_ context.Context, record *evaluation.ExternalSourceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeSourceRepo) ListByEvaluation(_ context.Context, evaluationID string) ([]*evaluation.ExternalSourceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*evaluation.ExternalSourceRecord
	for _, rec := range r.records {
		if rec.EvaluationID == evaluationID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeRecRepo struct {
	mu   sync.Mutex
	recs []*recommendation.Recommendation
}

func (r *fakeRecRepo) FindByID(_ context.Context, id string) (*recommendation.Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, errors.New(errors.ErrCodeRecommendationNotFound, "recommendation not found")
}

func (r *fakeRecRepo) Create(_ context.Context, rec *recommendation.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *fakeRecRepo) Update(_ context.Context, _ *recommendation.Recommendation) error { return nil }

func (r *fakeRecRepo) ListPending(_ context.Context) ([]*recommendation.Recommendation, error) {
	return nil, nil
}

func (r *fakeRecRepo) ListByEvaluation(_ context.Context, _ string) ([]*recommendation.Recommendation, error) {
	return nil, nil
}

func (r *fakeRecRepo) CountByStatus(_ context.Context, status recommendation.Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.recs {
		if rec.Status == status {
			n++
		}
	}
	return n, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]any
	sets    int
	gets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]any)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *DashboardStats:
		*d = *(v.(*DashboardStats))
	case *EvaluationView:
		*d = *(v.(*EvaluationView))
	}
	return true, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// seedEvaluation analyzes nothing; it writes a finished evaluation directly.
func seedEvaluation(t *testing.T, repo *fakeEvalRepo, supplierID string, relation evaluation.RelationType, composite float64) *evaluation.Evaluation {
	t.Helper()
	eval, err := evaluation.NewEvaluation(supplierID, relation, evaluation.IdentifiedByRegistryAuthority)
	require.NoError(t, err)

	rec, state := Classify(composite)
	eval.ApplyAnalysis(evaluation.AnalysisOutcome{
		Scores:         uniformScores(composite),
		CompositeScore: composite,
		Confidence:     0.8,
		Recommendation: rec,
		State:          state,
	}, time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), eval))
	return eval
}

type queryFixture struct {
	suppliers *fakeSupplierRepo
	evals     *fakeEvalRepo
	sources   *fakeSourceRepo
	logs      *fakeLogRepo
	recs      *fakeRecRepo
	cache     *memoryCache
	svc       *QueryService
}

func newQueryFixture(withCache bool, sups ...*supplier.Supplier) *queryFixture {
	f := &queryFixture{
		suppliers: newFakeSupplierRepo(sups...),
		evals:     newFakeEvalRepo(),
		sources:   &fakeSourceRepo{},
		logs:      &fakeLogRepo{},
		recs:      &fakeRecRepo{},
	}
	var cache Cache
	if withCache {
		f.cache = newMemoryCache()
		cache = f.cache
	}
	f.svc = NewQueryService(f.suppliers, f.evals, f.sources, f.logs, f.recs, cache, time.Minute, nil, nil)
	return f
}

func TestQueryService_Search_Buckets(t *testing.T) {
	f := newQueryFixture(false,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma", Country: "Germany"},
		&supplier.Supplier{ID: "sup-b", CompanyName: "Beta Bio", Country: "India"},
		&supplier.Supplier{ID: "sup-c", CompanyName: "Gamma Chem", Country: "China"},
	)
	// A known partner with a middling score, a new prequalified supplier,
	// and a new supplier that needs auditing.
	seedEvaluation(t, f.evals, "sup-a", evaluation.RelationExistingPartner, 72)
	seedEvaluation(t, f.evals, "sup-b", evaluation.RelationNew, 88)
	seedEvaluation(t, f.evals, "sup-c", evaluation.RelationNew, 65)

	result, err := f.svc.Search(context.Background(), SearchParams{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	require.Len(t, result.ExistingPartners, 1)
	require.Len(t, result.NewPrequalified, 1)
	require.Len(t, result.NeedsReview, 1)

	assert.Equal(t, "sup-a", result.ExistingPartners[0].SupplierID)
	assert.Equal(t, "Alpha Pharma", result.ExistingPartners[0].CompanyName)
	assert.Equal(t, "sup-b", result.NewPrequalified[0].SupplierID)
	assert.Equal(t, "sup-c", result.NeedsReview[0].SupplierID)
}

func TestQueryService_Search_NameFilter(t *testing.T) {
	f := newQueryFixture(false,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma"},
		&supplier.Supplier{ID: "sup-b", CompanyName: "Beta Bio", LegalName: "Beta Biologics GmbH"},
	)
	seedEvaluation(t, f.evals, "sup-a", evaluation.RelationNew, 88)
	seedEvaluation(t, f.evals, "sup-b", evaluation.RelationNew, 90)

	result, err := f.svc.Search(context.Background(), SearchParams{Query: "biologics"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.NewPrequalified, 1)
	assert.Equal(t, "sup-b", result.NewPrequalified[0].SupplierID)
	// Listings prefer the legal name when one is recorded.
	assert.Equal(t, "Beta Biologics GmbH", result.NewPrequalified[0].CompanyName)
}

func TestQueryService_Search_PartnerBucketWinsOverScore(t *testing.T) {
	f := newQueryFixture(false,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma"})
	// A prequalified existing partner stays in the partner bucket.
	seedEvaluation(t, f.evals, "sup-a", evaluation.RelationExistingPartner, 92)

	result, err := f.svc.Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	require.Len(t, result.ExistingPartners, 1)
	assert.Empty(t, result.NewPrequalified)
}

func TestQueryService_Search_Filters(t *testing.T) {
	f := newQueryFixture(false,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma"},
		&supplier.Supplier{ID: "sup-b", CompanyName: "Beta Bio"},
	)
	seedEvaluation(t, f.evals, "sup-a", evaluation.RelationNew, 88)
	seedEvaluation(t, f.evals, "sup-b", evaluation.RelationNew, 61)

	result, err := f.svc.Search(context.Background(), SearchParams{MinComposite: 80})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.NewPrequalified, 1)
	assert.Equal(t, "sup-a", result.NewPrequalified[0].SupplierID)

	result, err = f.svc.Search(context.Background(), SearchParams{Recommendation: evaluation.RecommendationToAudit})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.NeedsReview, 1)
	assert.Equal(t, "sup-b", result.NeedsReview[0].SupplierID)
}

func TestQueryService_Search_EmptyResult(t *testing.T) {
	f := newQueryFixture(false)

	result, err := f.svc.Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.ExistingPartners)
	assert.NotNil(t, result.NewPrequalified)
	assert.NotNil(t, result.NeedsReview)
}

func TestQueryService_GetEvaluation(t *testing.T) {
	f := newQueryFixture(true,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma"})
	eval := seedEvaluation(t, f.evals, "sup-a", evaluation.RelationNew, 88)

	record, err := evaluation.NewExternalSourceRecord(eval.ID, evaluation.SourceWHOPrequalification,
		evaluation.SourceTypeCertification, "", whoResult(true).Payload, 0.95)
	require.NoError(t, err)
	require.NoError(t, f.sources.Append(context.Background(), record))

	view, err := f.svc.GetEvaluation(context.Background(), "sup-a")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Pharma", view.Supplier.CompanyName)
	assert.Equal(t, 88.0, view.Evaluation.CompositeScore)
	require.Len(t, view.Sources, 1)

	// Second read is served from the cache.
	again, err := f.svc.GetEvaluation(context.Background(), "sup-a")
	require.NoError(t, err)
	assert.Equal(t, view.Evaluation.CompositeScore, again.Evaluation.CompositeScore)
	assert.Equal(t, 1, f.cache.sets)
}

func TestQueryService_GetEvaluation_UnknownSupplier(t *testing.T) {
	f := newQueryFixture(false)
	_, err := f.svc.GetEvaluation(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestQueryService_Stats(t *testing.T) {
	f := newQueryFixture(false,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma"},
		&supplier.Supplier{ID: "sup-b", CompanyName: "Beta Bio"},
		&supplier.Supplier{ID: "sup-c", CompanyName: "Gamma Chem"},
		&supplier.Supplier{ID: "sup-d", CompanyName: "Delta Labs"},
	)
	seedEvaluation(t, f.evals, "sup-a", evaluation.RelationExistingPartner, 88)
	seedEvaluation(t, f.evals, "sup-b", evaluation.RelationNew, 65)
	seedEvaluation(t, f.evals, "sup-c", evaluation.RelationNew, 40)

	rec, err := recommendation.New("eval-b", "sup-b", "analyst", recommendation.TypeAudit, "", 65)
	require.NoError(t, err)
	require.NoError(t, f.recs.Create(context.Background(), rec))

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalSuppliers)
	assert.Equal(t, int64(3), stats.TotalAnalyzed)
	assert.InDelta(t, 75.0, stats.CoveragePercent, 1e-9)
	assert.Equal(t, int64(1), stats.ByRecommendation[evaluation.RecommendationPrequalified])
	assert.Equal(t, int64(1), stats.ByRecommendation[evaluation.RecommendationToAudit])
	assert.Equal(t, int64(1), stats.ByRecommendation[evaluation.RecommendationHighRisk])
	assert.Equal(t, int64(1), stats.ByRelation[evaluation.RelationExistingPartner])
	assert.Equal(t, int64(1), stats.PendingRecommendations)
}

func TestQueryService_Stats_CachedSecondRead(t *testing.T) {
	f := newQueryFixture(true,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma"})
	seedEvaluation(t, f.evals, "sup-a", evaluation.RelationNew, 88)

	first, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	// Mutating the repo afterwards is invisible until invalidation.
	seedEvaluation(t, f.evals, "sup-b", evaluation.RelationNew, 50)

	second, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.TotalAnalyzed, second.TotalAnalyzed)
	assert.Equal(t, 1, f.cache.sets)
}

func TestQueryService_FilterOptions(t *testing.T) {
	f := newQueryFixture(false)
	opts := f.svc.FilterOptions(context.Background())

	assert.Len(t, opts.RelationTypes, 3)
	assert.Len(t, opts.Recommendations, 3)
	assert.Len(t, opts.States, 5)
	assert.Equal(t, []string{"Brazil", "China", "Germany", "India", "South Africa"}, opts.Countries)
}

func TestQueryService_ListExternalSources(t *testing.T) {
	f := newQueryFixture(false,
		&supplier.Supplier{ID: "sup-a", CompanyName: "Alpha Pharma"})
	eval := seedEvaluation(t, f.evals, "sup-a", evaluation.RelationNew, 88)

	for _, key := range []string{evaluation.SourceWHOPrequalification, evaluation.SourceFDARegistration} {
		record, err := evaluation.NewExternalSourceRecord(eval.ID, key,
			evaluation.SourceTypeRegistration, "", evaluation.SourcePayload{Kind: evaluation.PayloadOpaque}, 0.9)
		require.NoError(t, err)
		require.NoError(t, f.sources.Append(context.Background(), record))
	}

	records, err := f.svc.ListExternalSources(context.Background(), "sup-a")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

type failingCache struct {
	memoryCache
}

func (c *failingCache) Delete(_ context.Context, _ ...string) error {
	return errors.New(errors.ErrCodeCacheError, "redis unavailable")
}

func TestViewCacheInvalidator_DropsStaleViews(t *testing.T) {
	cache := newMemoryCache()
	require.NoError(t, cache.Set(context.Background(), cacheKeyDashboardStats, &DashboardStats{}, time.Minute))
	require.NoError(t, cache.Set(context.Background(), cacheKeyEvaluation+"sup-a", &EvaluationView{}, time.Minute))

	inv := NewViewCacheInvalidator(cache, nil)
	inv.InvalidateEvaluation(context.Background(), "sup-a")
	inv.InvalidateStats(context.Background())

	assert.Empty(t, cache.entries)
}

func TestViewCacheInvalidator_LogsDeleteFailures(t *testing.T) {
	logger := testutil.NewMockLogger()
	inv := NewViewCacheInvalidator(&failingCache{}, logger)

	inv.InvalidateEvaluation(context.Background(), "sup-a")
	inv.InvalidateStats(context.Background())

	assert.True(t, logger.HasMessage("warn", "failed to invalidate evaluation view"))
	assert.True(t, logger.HasMessage("warn", "failed to invalidate dashboard stats"))
}
