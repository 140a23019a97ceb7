package evaluation

import "context"

// Filter narrows evaluation queries.  Zero values mean "no constraint".
type Filter struct {
	RelationType   RelationType
	Recommendation Recommendation
	State          PrequalificationState
	Country        string
	MinComposite   float64
	NameQuery      string
	Limit          int
	Offset         int
}

// StatsBreakdown aggregates counts for the dashboard.
type StatsBreakdown struct {
	TotalAnalyzed    int64                    `json:"total_analyzed"`
	ByRecommendation map[Recommendation]int64 `json:"by_recommendation"`
	ByRelation       map[RelationType]int64   `json:"by_relation"`
}

// Repository is the persistence contract for the evaluation aggregate.
type Repository interface {
	// FindBySupplierID returns the evaluation or an EvaluationNotFound error.
	FindBySupplierID(ctx context.Context, supplierID string) (*Evaluation, error)
	FindByID(ctx context.Context, id string) (*Evaluation, error)
	Create(ctx context.Context, eval *Evaluation) error
	// Update overwrites the score fields of an existing evaluation.
	Update(ctx context.Context, eval *Evaluation) error
	// Query returns evaluations matching the filter.
	Query(ctx context.Context, filter Filter) ([]*Evaluation, error)
	// Stats aggregates recommendation and relation counts.
	Stats(ctx context.Context) (*StatsBreakdown, error)
}

// SourceRecordRepository persists append-only external source records.
type SourceRecordRepository interface {
	Append(ctx context.Context, record *ExternalSourceRecord) error
	ListByEvaluation(ctx context.Context, evaluationID string) ([]*ExternalSourceRecord, error)
}

// AnalysisLogRepository persists the immutable analysis log.
type AnalysisLogRepository interface {
	Append(ctx context.Context, log *AnalysisLog) error
	ListByEvaluation(ctx context.Context, evaluationID string) ([]*AnalysisLog, error)
}
