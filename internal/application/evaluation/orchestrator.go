package evaluation

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/supplier"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Collector gathers normalized registry data for one supplier.  Individual
// source failures are absorbed; the returned map contains only the sources
// that produced data.
type Collector interface {
	Collect(ctx context.Context, eval *evaluation.Evaluation, sup *supplier.Supplier) evaluation.ExternalData
}

// DistributedLock guards one supplier's analysis.
type DistributedLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LockFactory creates per-key locks.
type LockFactory interface {
	NewLock(key string) DistributedLock
}

// EventPublisher emits analysis lifecycle events.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, supplierID string, composite float64, rec evaluation.Recommendation) error
	PublishAnalysisFailed(ctx context.Context, supplierID string, cause string) error
}

// CacheInvalidator drops cached views after a state change.
type CacheInvalidator interface {
	InvalidateEvaluation(ctx context.Context, supplierID string)
	InvalidateStats(ctx context.Context)
}

// Result summarizes one analysis run.
type Result struct {
	SupplierID     string                    `json:"supplier_id"`
	Status         string                    `json:"status"`
	CompositeScore float64                   `json:"composite_score,omitempty"`
	Recommendation evaluation.Recommendation `json:"recommendation,omitempty"`
	Confidence     float64                   `json:"confidence,omitempty"`
	Message        string                    `json:"message,omitempty"`
}

// BatchStatus is the per-supplier outcome of a batch dispatch.
type BatchStatus struct {
	SupplierID string `json:"supplier_id"`
	Status     string `json:"status"` // "queued" | "not_found"
	Error      string `json:"error,omitempty"`
}

// Dispatch statuses.
const (
	StatusQueued    = "queued"
	StatusNotFound  = "not_found"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// OrchestratorConfig carries the execution tunables.
type OrchestratorConfig struct {
	BatchConcurrency int
}

// Orchestrator sequences collection, scoring, confidence estimation,
// classification, persistence, and audit logging for one supplier, and fans
// out batch analysis across suppliers.
type Orchestrator struct {
	suppliers supplier.Repository
	evals     evaluation.Repository
	logs      evaluation.AnalysisLogRepository
	collector Collector
	scorer    *Scorer
	estimator *ConfidenceEstimator
	locks     LockFactory
	events    EventPublisher
	cache     CacheInvalidator
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	cfg       OrchestratorConfig
}

// NewOrchestrator wires the analysis pipeline.  events and cache may be nil
// when the deployment carries no broker or cache.
func NewOrchestrator(
	suppliers supplier.Repository,
	evals evaluation.Repository,
	logs evaluation.AnalysisLogRepository,
	collector Collector,
	locks LockFactory,
	events EventPublisher,
	cache CacheInvalidator,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
	cfg OrchestratorConfig,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	if cfg.BatchConcurrency < 1 {
		cfg.BatchConcurrency = 5
	}
	return &Orchestrator{
		suppliers: suppliers,
		evals:     evals,
		logs:      logs,
		collector: collector,
		scorer:    NewScorer(),
		estimator: NewConfidenceEstimator(),
		locks:     locks,
		events:    events,
		cache:     cache,
		metrics:   metrics,
		logger:    logger.Named("orchestrator"),
		cfg:       cfg,
	}
}

// Analyze runs the full pipeline for one supplier.  When force is false and
// the supplier has already been analyzed, the stored result is returned
// without a re-run.  Collection strictly precedes scoring, which strictly
// precedes classification and persistence.
func (o *Orchestrator) Analyze(ctx context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*Result, error) {
	start := time.Now()
	timer := prometheus.NewTimer(o.metrics.AnalysisDuration.WithLabelValues(string(trigger)))
	defer timer.ObserveDuration()

	sup, err := o.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	// At most one in-flight analysis per supplier.
	lock := o.locks.NewLock("analysis:" + supplierID)
	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to acquire analysis lock")
	}
	if !acquired {
		return nil, errors.New(errors.ErrCodeEvaluationInProgress, "analysis already in progress").
			WithDetail("supplier_id=" + supplierID)
	}
	defer func() { _ = lock.Release(ctx) }()

	eval, analysisType, err := o.fetchOrCreate(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	if !force && eval.Analyzed() {
		return &Result{
			SupplierID:     supplierID,
			Status:         StatusSkipped,
			CompositeScore: eval.CompositeScore,
			Recommendation: eval.Recommendation,
			Confidence:     eval.Confidence,
			Message:        "already analyzed; pass force to re-run",
		}, nil
	}

	before := eval.Snapshot()

	data := o.collector.Collect(ctx, eval, sup)
	scores, composite := o.scorer.Score(sup, data)
	confidence := o.estimator.Estimate(scores, data.DistinctSources(), eval.RelationType)
	recommendation, state := Classify(composite)

	now := time.Now().UTC()
	eval.ApplyAnalysis(evaluation.AnalysisOutcome{
		Scores:         scores,
		CompositeScore: composite,
		Confidence:     confidence,
		Recommendation: recommendation,
		State:          state,
	}, now)

	if err := o.evals.Update(ctx, eval); err != nil {
		o.failRun(ctx, eval, analysisType, trigger, before, data, start, err)
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to persist evaluation")
	}

	if err := o.appendLog(ctx, eval, analysisType, trigger, before, eval.Snapshot(), data, time.Since(start), nil); err != nil {
		// The analysis itself succeeded; a lost audit entry is still an error.
		return nil, err
	}

	o.afterSuccess(ctx, supplierID, composite, recommendation, trigger)

	o.logger.Info("analysis completed",
		logging.String("supplier_id", supplierID),
		logging.Float64("composite", composite),
		logging.String("recommendation", string(recommendation)),
		logging.Float64("confidence", confidence),
		logging.Int("sources", data.DistinctSources()),
		logging.Duration("elapsed", time.Since(start)))

	return &Result{
		SupplierID:     supplierID,
		Status:         StatusCompleted,
		CompositeScore: composite,
		Recommendation: recommendation,
		Confidence:     confidence,
	}, nil
}

// AnalyzeAsync verifies the supplier exists, schedules an analysis, and
// returns immediately with a queued status.  Analysis failures after
// dispatch are recorded in the analysis log and surfaced through the
// evaluation record, not to the caller.
func (o *Orchestrator) AnalyzeAsync(ctx context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*Result, error) {
	if _, err := o.suppliers.FindByID(ctx, supplierID); err != nil {
		return nil, err
	}
	go func() {
		ctx := context.WithoutCancel(ctx)
		if _, err := o.Analyze(ctx, supplierID, force, trigger); err != nil {
			o.logger.Error("async analysis failed",
				logging.String("supplier_id", supplierID),
				logging.Err(err))
		}
	}()
	return &Result{SupplierID: supplierID, Status: StatusQueued}, nil
}

// AnalyzeBatch pre-flight-checks each supplier, dispatches the analyses with
// bounded concurrency, and returns the per-supplier dispatch status without
// waiting for completion.
func (o *Orchestrator) AnalyzeBatch(ctx context.Context, supplierIDs []string, trigger evaluation.AnalysisTrigger) []BatchStatus {
	statuses := make([]BatchStatus, 0, len(supplierIDs))
	var queued []string

	for _, id := range supplierIDs {
		if _, err := o.suppliers.FindByID(ctx, id); err != nil {
			if errors.IsNotFound(err) {
				statuses = append(statuses, BatchStatus{SupplierID: id, Status: StatusNotFound})
				continue
			}
			statuses = append(statuses, BatchStatus{SupplierID: id, Status: StatusNotFound, Error: err.Error()})
			continue
		}
		statuses = append(statuses, BatchStatus{SupplierID: id, Status: StatusQueued})
		queued = append(queued, id)
	}

	o.metrics.BatchAnalysesTotal.WithLabelValues("dispatched").Inc()

	go func() {
		if err := o.RunBatch(context.WithoutCancel(ctx), queued, trigger); err != nil {
			o.logger.Error("batch analysis finished with failures", logging.Err(err))
		}
	}()

	return statuses
}

// RunBatch analyzes the suppliers synchronously with bounded fan-out.
// Sibling failures are independent: one supplier failing does not stop the
// others, and the first error is returned after all analyses finish.
// Cancelling ctx stops undispatched work.
func (o *Orchestrator) RunBatch(ctx context.Context, supplierIDs []string, trigger evaluation.AnalysisTrigger) error {
	var g errgroup.Group
	g.SetLimit(o.cfg.BatchConcurrency)

	for _, id := range supplierIDs {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o.metrics.ActiveAnalysisWorkers.WithLabelValues().Inc()
			defer o.metrics.ActiveAnalysisWorkers.WithLabelValues().Dec()

			if _, err := o.Analyze(ctx, id, true, trigger); err != nil {
				o.logger.Error("batch member failed",
					logging.String("supplier_id", id),
					logging.Err(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// fetchOrCreate loads the supplier's evaluation, creating an unevaluated
// record on first analysis.
func (o *Orchestrator) fetchOrCreate(ctx context.Context, supplierID string) (*evaluation.Evaluation, evaluation.AnalysisType, error) {
	eval, err := o.evals.FindBySupplierID(ctx, supplierID)
	if err == nil {
		analysisType := evaluation.AnalysisUpdate
		if eval.Analyzed() {
			analysisType = evaluation.AnalysisReevaluation
		}
		return eval, analysisType, nil
	}
	if !errors.IsNotFound(err) {
		return nil, "", errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load evaluation")
	}

	eval, err = evaluation.NewEvaluation(supplierID, evaluation.RelationNew, evaluation.IdentifiedByAutoDiscovery)
	if err != nil {
		return nil, "", err
	}
	if err := o.evals.Create(ctx, eval); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create evaluation")
	}
	return eval, evaluation.AnalysisInitial, nil
}

func (o *Orchestrator) appendLog(ctx context.Context, eval *evaluation.Evaluation, analysisType evaluation.AnalysisType, trigger evaluation.AnalysisTrigger, before, after evaluation.ScoreSnapshot, data evaluation.ExternalData, duration time.Duration, cause error) error {
	log, err := evaluation.NewAnalysisLog(eval, analysisType, trigger, before, after, o.scorer.weights.AsSlice(), data.SourceKeys(), duration)
	if err != nil {
		return err
	}
	if cause != nil {
		log.MarkFailed(cause)
	}
	if err := o.logs.Append(ctx, log); err != nil {
		return errors.Wrap(err, errors.ErrCodeAnalysisLogWriteFailed, "failed to append analysis log")
	}
	return nil
}

// failRun records a failed analysis so the run stays attributable, then
// emits the failure event.  Best-effort: the original error is what the
// caller sees.
func (o *Orchestrator) failRun(ctx context.Context, eval *evaluation.Evaluation, analysisType evaluation.AnalysisType, trigger evaluation.AnalysisTrigger, before evaluation.ScoreSnapshot, data evaluation.ExternalData, start time.Time, cause error) {
	o.metrics.AnalysesTotal.WithLabelValues(string(trigger), StatusFailed).Inc()
	o.metrics.ErrorsTotal.WithLabelValues("evaluation", errors.GetCode(cause).String()).Inc()

	if err := o.appendLog(ctx, eval, analysisType, trigger, before, before, data, time.Since(start), cause); err != nil {
		o.logger.Error("failed to append failure log",
			logging.String("supplier_id", eval.SupplierID),
			logging.Err(err))
	}
	if o.events != nil {
		if err := o.events.PublishAnalysisFailed(ctx, eval.SupplierID, cause.Error()); err != nil {
			o.logger.Warn("failed to publish analysis.failed event", logging.Err(err))
		}
	}
}

func (o *Orchestrator) afterSuccess(ctx context.Context, supplierID string, composite float64, rec evaluation.Recommendation, trigger evaluation.AnalysisTrigger) {
	o.metrics.AnalysesTotal.WithLabelValues(string(trigger), StatusCompleted).Inc()
	o.metrics.AnalysisScore.WithLabelValues(string(rec)).Observe(composite)

	if o.cache != nil {
		o.cache.InvalidateEvaluation(ctx, supplierID)
		o.cache.InvalidateStats(ctx)
	}
	if o.events != nil {
		if err := o.events.PublishAnalysisCompleted(ctx, supplierID, composite, rec); err != nil {
			o.logger.Warn("failed to publish analysis.completed event", logging.Err(err))
		}
	}
}
