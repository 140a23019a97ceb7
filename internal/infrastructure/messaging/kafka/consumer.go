package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	application "github.com/turtacn/VendorIQ-Intelligence/internal/application/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/config"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AnalysisRunner is the slice of the orchestration layer the worker drives.
type AnalysisRunner interface {
	Analyze(ctx context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*application.Result, error)
	RunBatch(ctx context.Context, supplierIDs []string, trigger evaluation.AnalysisTrigger) error
}

// Worker consumes analysis requests and runs them through the orchestrator.
// Single-supplier requests are retried on failure up to maxRetries; after
// that the message is committed anyway, since the orchestrator already
// records the failure in the analysis log and replaying the request would
// only repeat the same outcome.
type Worker struct {
	reader       ReaderInterface
	runner       AnalysisRunner
	logger       logging.Logger
	maxRetries   int
	retryBackoff time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWorker creates a Worker backed by a real kafka.Reader subscribed to the
// analysis request topic.
func NewWorker(cfg config.KafkaConfig, wcfg config.WorkerConfig, runner AnalysisRunner, logger logging.Logger) (*Worker, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka group id required")
	}
	if runner == nil {
		return nil, errors.New(errors.ErrCodeValidation, "analysis runner required")
	}
	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       TopicAnalysisRequested,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
	})
	w := NewWorkerWithReader(reader, runner, logger)
	w.maxRetries = wcfg.MaxRetries
	w.retryBackoff = wcfg.RetryBackoff
	return w, nil
}

// NewWorkerWithReader wires an existing reader, used in tests.  Retries are
// disabled; NewWorker applies the configured retry policy.
func NewWorkerWithReader(reader ReaderInterface, runner AnalysisRunner, logger logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Worker{reader: reader, runner: runner, logger: logger, retryBackoff: time.Second}
}

// Start launches the consume loop in a goroutine.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New(errors.ErrCodeConflict, "worker already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})
	go func() {
		defer close(w.done)
		w.consumeLoop(ctx)
	}()
	w.logger.Info("analysis worker started", logging.String("topic", TopicAnalysisRequested))
	return nil
}

func (w *Worker) consumeLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to fetch message", logging.Err(err))
			w.sleep(ctx, w.retryBackoff)
			continue
		}
		w.handleMessage(ctx, msg)
		if err := w.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			w.logger.Error("failed to commit message",
				logging.String("topic", msg.Topic),
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg kafka.Message) {
	env, err := EnvelopeFromMessage(msg)
	if err != nil {
		w.logger.Warn("dropping malformed message",
			logging.Int64("offset", msg.Offset), logging.Err(err))
		return
	}
	if env.EventType != EventAnalysisRequested {
		w.logger.Warn("dropping message with unexpected event type",
			logging.String("event_type", env.EventType))
		return
	}
	var payload AnalysisRequestedPayload
	if err := env.DecodePayload(&payload); err != nil {
		w.logger.Warn("dropping message with malformed payload",
			logging.String("event_id", env.EventID), logging.Err(err))
		return
	}
	if len(payload.SupplierIDs) == 0 {
		w.logger.Warn("dropping request without supplier ids",
			logging.String("event_id", env.EventID))
		return
	}

	trigger := evaluation.AnalysisTrigger(payload.Trigger)
	if trigger == "" {
		trigger = evaluation.TriggerScheduled
	}

	w.logger.Info("processing analysis request",
		logging.String("event_id", env.EventID),
		logging.Int("suppliers", len(payload.SupplierIDs)),
		logging.String("trigger", string(trigger)))

	if len(payload.SupplierIDs) == 1 {
		w.analyzeWithRetry(ctx, payload.SupplierIDs[0], payload.Force, trigger)
		return
	}
	if err := w.runner.RunBatch(ctx, payload.SupplierIDs, trigger); err != nil {
		w.logger.Error("batch analysis request finished with failures",
			logging.Int("suppliers", len(payload.SupplierIDs)),
			logging.Err(err))
	}
}

func (w *Worker) analyzeWithRetry(ctx context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) {
	for attempt := 0; ; attempt++ {
		_, err := w.runner.Analyze(ctx, supplierID, force, trigger)
		if err == nil {
			return
		}
		// Domain rejections will not succeed on replay; only transient
		// failures are worth another attempt.
		if errors.IsNotFound(err) || errors.IsValidation(err) || ctx.Err() != nil || attempt >= w.maxRetries {
			w.logger.Error("analysis request failed",
				logging.String("supplier_id", supplierID),
				logging.Int("attempts", attempt+1),
				logging.Err(err))
			return
		}
		w.logger.Warn("analysis attempt failed, retrying",
			logging.String("supplier_id", supplierID),
			logging.Int("attempt", attempt+1),
			logging.Err(err))
		w.sleep(ctx, w.retryBackoff)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Stop cancels the consume loop and closes the reader.
func (w *Worker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return nil
	}
	w.cancel()
	<-w.done
	w.running = false
	return w.reader.Close()
}
