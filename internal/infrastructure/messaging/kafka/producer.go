package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/VendorIQ-Intelligence/internal/config"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/VendorIQ-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

const producerSource = "vendoriq-core"

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes analysis lifecycle events.  It satisfies the
// application layer's EventPublisher.
type Producer struct {
	writer  WriterInterface
	metrics *prometheus.AppMetrics
	logger  logging.Logger
	closed  atomic.Bool
}

// NewProducer creates a Producer backed by a real kafka.Writer.
func NewProducer(cfg config.KafkaConfig, metrics *prometheus.AppMetrics, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	maxAttempts := cfg.ProducerRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Producer{writer: writer, metrics: metrics, logger: logger}, nil
}

// NewProducerWithWriter wires an existing writer, used in tests.
func NewProducerWithWriter(writer WriterInterface, metrics *prometheus.AppMetrics, logger logging.Logger) *Producer {
	if metrics == nil {
		metrics = prometheus.NewNopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{writer: writer, metrics: metrics, logger: logger}
}

// PublishAnalysisRequested enqueues suppliers for asynchronous evaluation.
func (p *Producer) PublishAnalysisRequested(ctx context.Context, supplierIDs []string, force bool, trigger evaluation.AnalysisTrigger) error {
	if len(supplierIDs) == 0 {
		return errors.New(errors.ErrCodeValidation, "supplier ids required")
	}
	payload := AnalysisRequestedPayload{
		SupplierIDs: supplierIDs,
		Force:       force,
		Trigger:     string(trigger),
	}
	return p.publish(ctx, TopicAnalysisRequested, []byte(supplierIDs[0]), EventAnalysisRequested, payload)
}

// PublishAnalysisCompleted announces a finished evaluation.
func (p *Producer) PublishAnalysisCompleted(ctx context.Context, supplierID string, composite float64, rec evaluation.Recommendation) error {
	payload := AnalysisCompletedPayload{
		SupplierID:     supplierID,
		CompositeScore: composite,
		Recommendation: string(rec),
		CompletedAt:    time.Now().UTC(),
	}
	return p.publish(ctx, TopicAnalysisCompleted, []byte(supplierID), EventAnalysisCompleted, payload)
}

// PublishAnalysisFailed announces an evaluation that could not finish.
func (p *Producer) PublishAnalysisFailed(ctx context.Context, supplierID, cause string) error {
	payload := AnalysisFailedPayload{
		SupplierID: supplierID,
		Cause:      cause,
		FailedAt:   time.Now().UTC(),
	}
	return p.publish(ctx, TopicAnalysisFailed, []byte(supplierID), EventAnalysisFailed, payload)
}

func (p *Producer) publish(ctx context.Context, topic string, key []byte, eventType string, payload interface{}) error {
	if p.closed.Load() {
		return errors.New(errors.ErrCodeInternal, "kafka producer is closed")
	}
	env, err := NewEventEnvelope(eventType, producerSource, payload)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(topic, key)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.EventsPublished.WithLabelValues(topic, "failed").Inc()
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to publish event to "+topic)
	}
	p.metrics.EventsPublished.WithLabelValues(topic, "published").Inc()
	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_type", eventType),
		logging.String("event_id", env.EventID))
	return nil
}

// Close flushes and closes the underlying writer.  It is idempotent.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
