package evaluation

import (
	"context"
	"time"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/recommendation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Cache is the read-through view cache used by the query side.  A nil cache
// disables caching without changing behavior.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Cache keys for the query side.
const (
	cacheKeyDashboardStats = "views:dashboard_stats"
	cacheKeyEvaluation     = "views:evaluation:" // + supplier id
)

// viewCacheInvalidator drops the views an analysis makes stale.
type viewCacheInvalidator struct {
	cache  Cache
	logger logging.Logger
}

// NewViewCacheInvalidator adapts the view cache to the orchestrator's
// invalidation hooks.
func NewViewCacheInvalidator(cache Cache, logger logging.Logger) CacheInvalidator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &viewCacheInvalidator{cache: cache, logger: logger}
}

func (v *viewCacheInvalidator) InvalidateEvaluation(ctx context.Context, supplierID string) {
	if err := v.cache.Delete(ctx, cacheKeyEvaluation+supplierID); err != nil {
		v.logger.Warn("failed to invalidate evaluation view",
			logging.String("supplier_id", supplierID), logging.Err(err))
	}
}

func (v *viewCacheInvalidator) InvalidateStats(ctx context.Context) {
	if err := v.cache.Delete(ctx, cacheKeyDashboardStats); err != nil {
		v.logger.Warn("failed to invalidate dashboard stats", logging.Err(err))
	}
}

// SearchParams narrows a supplier search.  Zero values mean "no constraint".
type SearchParams struct {
	Query          string                           `json:"query,omitempty"`
	RelationType   evaluation.RelationType          `json:"relation_type,omitempty"`
	Recommendation evaluation.Recommendation        `json:"recommendation,omitempty"`
	State          evaluation.PrequalificationState `json:"state,omitempty"`
	Country        string                           `json:"country,omitempty"`
	MinComposite   float64                          `json:"min_composite,omitempty"`
	Limit          int                              `json:"limit,omitempty"`
	Offset         int                              `json:"offset,omitempty"`
}

// SearchItem is one row of a search result.
type SearchItem struct {
	SupplierID     string                           `json:"supplier_id"`
	CompanyName    string                           `json:"company_name"`
	Country        string                           `json:"country,omitempty"`
	RelationType   evaluation.RelationType          `json:"relation_type"`
	Scores         evaluation.CriterionScores       `json:"scores"`
	CompositeScore float64                          `json:"composite_score"`
	Confidence     float64                          `json:"confidence"`
	Recommendation evaluation.Recommendation        `json:"recommendation"`
	State          evaluation.PrequalificationState `json:"state"`
	LastAnalyzedAt *time.Time                       `json:"last_analyzed_at,omitempty"`
}

// SearchResult groups matches into the three review buckets, in the order
// they are presented: known partners first, then newly prequalified
// candidates, then everything that needs a closer look.
type SearchResult struct {
	ExistingPartners []SearchItem `json:"existing_partners"`
	NewPrequalified  []SearchItem `json:"new_prequalified"`
	NeedsReview      []SearchItem `json:"needs_review"`
	Total            int          `json:"total"`
}

// EvaluationView is the detail view of one supplier's evaluation.
type EvaluationView struct {
	Supplier   *supplier.Supplier                 `json:"supplier"`
	Evaluation *evaluation.Evaluation             `json:"evaluation"`
	Sources    []*evaluation.ExternalSourceRecord `json:"sources,omitempty"`
}

// DashboardStats is the aggregate view backing the operations dashboard.
type DashboardStats struct {
	TotalSuppliers         int64                               `json:"total_suppliers"`
	TotalAnalyzed          int64                               `json:"total_analyzed"`
	CoveragePercent        float64                             `json:"coverage_percent"`
	ByRecommendation       map[evaluation.Recommendation]int64 `json:"by_recommendation"`
	ByRelation             map[evaluation.RelationType]int64   `json:"by_relation"`
	PendingRecommendations int64                               `json:"pending_recommendations"`
	GeneratedAt            time.Time                           `json:"generated_at"`
}

// FilterOptions enumerates the values the search surface accepts.
type FilterOptions struct {
	RelationTypes   []evaluation.RelationType          `json:"relation_types"`
	Recommendations []evaluation.Recommendation        `json:"recommendations"`
	States          []evaluation.PrequalificationState `json:"states"`
	Countries       []string                           `json:"countries"`
}

// QueryService is the read side over evaluations: search, detail views,
// dashboard aggregates, and filter enumeration.
type QueryService struct {
	suppliers supplier.Repository
	evals     evaluation.Repository
	sources   evaluation.SourceRecordRepository
	logRepo   evaluation.AnalysisLogRepository
	recs      recommendation.Repository
	cache     Cache
	cacheTTL  time.Duration
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewQueryService wires the read side.  cache may be nil.
func NewQueryService(
	suppliers supplier.Repository,
	evals evaluation.Repository,
	sources evaluation.SourceRecordRepository,
	logRepo evaluation.AnalysisLogRepository,
	recs recommendation.Repository,
	cache Cache,
	cacheTTL time.Duration,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) *QueryService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &QueryService{
		suppliers: suppliers,
		evals:     evals,
		sources:   sources,
		logRepo:   logRepo,
		recs:      recs,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		logger:    logger.Named("query"),
	}
}

// Search filters evaluations and buckets the matches.  An existing partner
// always lands in the first bucket regardless of its recommendation; a new
// supplier lands in the second bucket only when prequalified.
func (s *QueryService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	evals, err := s.evals.Query(ctx, evaluation.Filter{
		RelationType:   params.RelationType,
		Recommendation: params.Recommendation,
		State:          params.State,
		Country:        params.Country,
		MinComposite:   params.MinComposite,
		NameQuery:      params.Query,
		Limit:          params.Limit,
		Offset:         params.Offset,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchFailed, "evaluation query failed")
	}

	byID, err := s.supplierIndex(ctx, evals)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		ExistingPartners: []SearchItem{},
		NewPrequalified:  []SearchItem{},
		NeedsReview:      []SearchItem{},
	}
	for _, eval := range evals {
		sup := byID[eval.SupplierID]
		// Repositories are expected to push the name filter down; this
		// guards implementations that cannot.
		if params.Query != "" && sup != nil && !sup.MatchesName(params.Query) {
			continue
		}
		item := newSearchItem(eval, sup)
		switch {
		case eval.RelationType == evaluation.RelationExistingPartner:
			result.ExistingPartners = append(result.ExistingPartners, item)
		case eval.Recommendation == evaluation.RecommendationPrequalified:
			result.NewPrequalified = append(result.NewPrequalified, item)
		default:
			result.NeedsReview = append(result.NeedsReview, item)
		}
		result.Total++
	}
	return result, nil
}

// GetEvaluation returns the detail view for one supplier, read through the
// cache when one is configured.
func (s *QueryService) GetEvaluation(ctx context.Context, supplierID string) (*EvaluationView, error) {
	key := cacheKeyEvaluation + supplierID
	if s.cache != nil {
		var cached EvaluationView
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			s.metrics.CacheHitsTotal.WithLabelValues("evaluation").Inc()
			return &cached, nil
		}
		s.metrics.CacheMissesTotal.WithLabelValues("evaluation").Inc()
	}

	sup, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	eval, err := s.evals.FindBySupplierID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	records, err := s.sources.ListByEvaluation(ctx, eval.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list source records")
	}

	view := &EvaluationView{Supplier: sup, Evaluation: eval, Sources: records}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, view, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache evaluation view", logging.Err(err))
		}
	}
	return view, nil
}

// ListExternalSources returns the raw source records for one supplier.
func (s *QueryService) ListExternalSources(ctx context.Context, supplierID string) ([]*evaluation.ExternalSourceRecord, error) {
	eval, err := s.evals.FindBySupplierID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	records, err := s.sources.ListByEvaluation(ctx, eval.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list source records")
	}
	return records, nil
}

// ListAnalysisLogs returns the analysis history for one supplier, most
// recent first.
func (s *QueryService) ListAnalysisLogs(ctx context.Context, supplierID string) ([]*evaluation.AnalysisLog, error) {
	eval, err := s.evals.FindBySupplierID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListByEvaluation(ctx, eval.ID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list analysis logs")
	}
	return logs, nil
}

// Stats aggregates the dashboard counters, read through the cache when one
// is configured.
func (s *QueryService) Stats(ctx context.Context) (*DashboardStats, error) {
	if s.cache != nil {
		var cached DashboardStats
		if hit, err := s.cache.Get(ctx, cacheKeyDashboardStats, &cached); err == nil && hit {
			s.metrics.CacheHitsTotal.WithLabelValues("stats").Inc()
			return &cached, nil
		}
		s.metrics.CacheMissesTotal.WithLabelValues("stats").Inc()
	}

	total, err := s.suppliers.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count suppliers")
	}
	breakdown, err := s.evals.Stats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to aggregate evaluations")
	}
	pending, err := s.recs.CountByStatus(ctx, recommendation.StatusPending)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count pending recommendations")
	}

	stats := &DashboardStats{
		TotalSuppliers:         total,
		TotalAnalyzed:          breakdown.TotalAnalyzed,
		ByRecommendation:       breakdown.ByRecommendation,
		ByRelation:             breakdown.ByRelation,
		PendingRecommendations: pending,
		GeneratedAt:            time.Now().UTC(),
	}
	if total > 0 {
		stats.CoveragePercent = float64(breakdown.TotalAnalyzed) / float64(total) * 100
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyDashboardStats, stats, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache dashboard stats", logging.Err(err))
		}
	}
	return stats, nil
}

// FilterOptions enumerates the accepted search filter values.  Countries
// are the ones with a dedicated risk profile; any other value is accepted
// but scores the default.
func (s *QueryService) FilterOptions(_ context.Context) *FilterOptions {
	return &FilterOptions{
		RelationTypes: []evaluation.RelationType{
			evaluation.RelationExistingPartner,
			evaluation.RelationNew,
			evaluation.RelationUnknown,
		},
		Recommendations: []evaluation.Recommendation{
			evaluation.RecommendationPrequalified,
			evaluation.RecommendationToAudit,
			evaluation.RecommendationHighRisk,
		},
		States: []evaluation.PrequalificationState{
			evaluation.StatePrequalified,
			evaluation.StateUnderReview,
			evaluation.StateToAudit,
			evaluation.StateRejected,
			evaluation.StateUnevaluated,
		},
		Countries: knownRiskCountries(),
	}
}

func (s *QueryService) supplierIndex(ctx context.Context, evals []*evaluation.Evaluation) (map[string]*supplier.Supplier, error) {
	ids := make([]string, 0, len(evals))
	for _, eval := range evals {
		ids = append(ids, eval.SupplierID)
	}
	sups, err := s.suppliers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load suppliers")
	}
	byID := make(map[string]*supplier.Supplier, len(sups))
	for _, sup := range sups {
		byID[sup.ID] = sup
	}
	return byID, nil
}

func newSearchItem(eval *evaluation.Evaluation, sup *supplier.Supplier) SearchItem {
	item := SearchItem{
		SupplierID:     eval.SupplierID,
		RelationType:   eval.RelationType,
		Scores:         eval.Scores,
		CompositeScore: eval.CompositeScore,
		Confidence:     eval.Confidence,
		Recommendation: eval.Recommendation,
		State:          eval.State,
		LastAnalyzedAt: eval.LastAnalyzedAt,
	}
	if sup != nil {
		item.CompanyName = sup.DisplayName()
		item.Country = sup.Country
	}
	return item
}
