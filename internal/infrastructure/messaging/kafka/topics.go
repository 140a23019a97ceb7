package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// Topic names carried by the analysis pipeline.
const (
	TopicAnalysisRequested = "supplier.analysis.requested"
	TopicAnalysisCompleted = "supplier.analysis.completed"
	TopicAnalysisFailed    = "supplier.analysis.failed"
)

// Event types embedded in envelopes.
const (
	EventAnalysisRequested = "analysis.requested"
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"
)

// EventEnvelope standardizes messages on every topic.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// AnalysisRequestedPayload asks the worker to evaluate one or more suppliers.
type AnalysisRequestedPayload struct {
	SupplierIDs []string `json:"supplier_ids"`
	Force       bool     `json:"force"`
	Trigger     string   `json:"trigger"`
}

// AnalysisCompletedPayload announces a finished evaluation.
type AnalysisCompletedPayload struct {
	SupplierID     string    `json:"supplier_id"`
	CompositeScore float64   `json:"composite_score"`
	Recommendation string    `json:"recommendation"`
	CompletedAt    time.Time `json:"completed_at"`
}

// AnalysisFailedPayload announces an evaluation that could not finish.
type AnalysisFailedPayload struct {
	SupplierID string    `json:"supplier_id"`
	Cause      string    `json:"cause"`
	FailedAt   time.Time `json:"failed_at"`
}

// NewEventEnvelope wraps a payload in a versioned envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event payload")
	}
	return nil
}

// ToMessage serializes the envelope into a Kafka message keyed by key.
func (e *EventEnvelope) ToMessage(topic string, key []byte) (kafka.Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}
	return kafka.Message{
		Topic: topic,
		Key:   key,
		Value: val,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "schema_version", Value: []byte(e.SchemaVersion)},
		},
		Time: e.Timestamp,
	}, nil
}

// EnvelopeFromMessage deserializes a consumed Kafka message.
func EnvelopeFromMessage(msg kafka.Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal event envelope")
	}
	return &env, nil
}
