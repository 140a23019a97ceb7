package recommendation

import "context"

// Repository is the persistence contract for recommendation records.
type Repository interface {
	// FindByID returns the record or a RecommendationNotFound error.
	FindByID(ctx context.Context, id string) (*Recommendation, error)
	Create(ctx context.Context, rec *Recommendation) error
	Update(ctx context.Context, rec *Recommendation) error
	// ListPending returns pending records ordered by priority then age.
	ListPending(ctx context.Context) ([]*Recommendation, error)
	ListByEvaluation(ctx context.Context, evaluationID string) ([]*Recommendation, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
}
