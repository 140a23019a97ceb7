package recommendation

import (
	"context"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Service implements the recommendation workflow: create against an existing
// evaluation, list the pending queue, and apply review decisions.
type Service struct {
	recs    Repository
	evals   evaluation.Repository
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewService wires the workflow over its repositories.
func NewService(recs Repository, evals evaluation.Repository, metrics *prometheus.AppMetrics, logger logging.Logger) *Service {
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Service{recs: recs, evals: evals, metrics: metrics, logger: logger.Named("recommendation")}
}

// Create builds a pending recommendation for the supplier's evaluation.
// Fails with a not-found error when the supplier has never been evaluated.
func (s *Service) Create(ctx context.Context, supplierID, actor string, recType Type, justification string) (*Recommendation, error) {
	eval, err := s.evals.FindBySupplierID(ctx, supplierID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.New(errors.ErrCodeEvaluationNotFound, "no evaluation exists for supplier").
				WithDetail("supplier_id=" + supplierID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load evaluation")
	}

	rec, err := New(eval.ID, supplierID, actor, recType, justification, eval.CompositeScore)
	if err != nil {
		return nil, err
	}

	if err := s.recs.Create(ctx, rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist recommendation")
	}

	s.metrics.RecommendationsTotal.WithLabelValues(string(rec.Type), string(rec.Priority)).Inc()
	s.logger.Info("recommendation created",
		logging.String("recommendation_id", rec.ID),
		logging.String("supplier_id", supplierID),
		logging.String("type", string(rec.Type)),
		logging.String("priority", string(rec.Priority)))
	return rec, nil
}

// Review applies a decision to a recommendation.
func (s *Service) Review(ctx context.Context, recommendationID string, decision Decision, reviewer, notes string) (*Recommendation, error) {
	rec, err := s.recs.FindByID(ctx, recommendationID)
	if err != nil {
		return nil, err
	}

	if err := rec.Review(decision, reviewer, notes); err != nil {
		return nil, err
	}

	if err := s.recs.Update(ctx, rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist review")
	}

	s.metrics.ReviewDecisionsTotal.WithLabelValues(string(decision)).Inc()
	s.logger.Info("recommendation reviewed",
		logging.String("recommendation_id", rec.ID),
		logging.String("decision", string(decision)),
		logging.String("reviewer", reviewer))
	return rec, nil
}

// ListPending returns the review queue.
func (s *Service) ListPending(ctx context.Context) ([]*Recommendation, error) {
	recs, err := s.recs.ListPending(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list pending recommendations")
	}
	return recs, nil
}
