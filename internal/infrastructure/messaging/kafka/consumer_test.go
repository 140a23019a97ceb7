package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	application "github.com/turtacn/VendorIQ-Intelligence/internal/application/evaluation"
	"github.com/turtacn/VendorIQ-Intelligence/internal/domain/evaluation"
	apperrors "github.com/turtacn/VendorIQ-Intelligence/pkg/errors"
)

// scriptedReader hands out pre-loaded messages, then blocks until the
// fetch context is cancelled.
type scriptedReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *scriptedReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *scriptedReader) commitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

type runnerCall struct {
	supplierIDs []string
	force       bool
	trigger     evaluation.AnalysisTrigger
	batch       bool
}

type fakeRunner struct {
	mu       sync.Mutex
	calls    []runnerCall
	err      error
	failures int
}

func (f *fakeRunner) Analyze(_ context.Context, supplierID string, force bool, trigger evaluation.AnalysisTrigger) (*application.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runnerCall{supplierIDs: []string{supplierID}, force: force, trigger: trigger})
	if f.failures > 0 {
		f.failures--
		return nil, assert.AnError
	}
	if f.err != nil {
		return nil, f.err
	}
	return &application.Result{SupplierID: supplierID, Status: application.StatusCompleted}, nil
}

func (f *fakeRunner) RunBatch(_ context.Context, supplierIDs []string, trigger evaluation.AnalysisTrigger) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, runnerCall{supplierIDs: supplierIDs, trigger: trigger, batch: true})
	return f.err
}

func (f *fakeRunner) snapshot() []runnerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]runnerCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func requestMessage(t *testing.T, supplierIDs []string, force bool, trigger evaluation.AnalysisTrigger) kafka.Message {
	t.Helper()
	env, err := NewEventEnvelope(EventAnalysisRequested, "test", AnalysisRequestedPayload{
		SupplierIDs: supplierIDs,
		Force:       force,
		Trigger:     string(trigger),
	})
	require.NoError(t, err)
	msg, err := env.ToMessage(TopicAnalysisRequested, []byte(supplierIDs[0]))
	require.NoError(t, err)
	return msg
}

func runWorker(t *testing.T, reader *scriptedReader, runner *fakeRunner, wantCommits int) {
	t.Helper()
	w := NewWorkerWithReader(reader, runner, nil)
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool {
		return reader.commitCount() >= wantCommits
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())
}

func TestWorker_SingleSupplierRequest(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		requestMessage(t, []string{"sup-1"}, true, evaluation.TriggerManual),
	}}
	runner := &fakeRunner{}

	runWorker(t, reader, runner, 1)

	calls := runner.snapshot()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].batch)
	assert.Equal(t, []string{"sup-1"}, calls[0].supplierIDs)
	assert.True(t, calls[0].force)
	assert.Equal(t, evaluation.TriggerManual, calls[0].trigger)
	assert.True(t, reader.closed)
}

func TestWorker_BatchRequest(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		requestMessage(t, []string{"sup-1", "sup-2", "sup-3"}, false, evaluation.TriggerScheduled),
	}}
	runner := &fakeRunner{}

	runWorker(t, reader, runner, 1)

	calls := runner.snapshot()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].batch)
	assert.Equal(t, []string{"sup-1", "sup-2", "sup-3"}, calls[0].supplierIDs)
	assert.Equal(t, evaluation.TriggerScheduled, calls[0].trigger)
}

func TestWorker_MissingTriggerDefaultsToScheduled(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		requestMessage(t, []string{"sup-1"}, false, ""),
	}}
	runner := &fakeRunner{}

	runWorker(t, reader, runner, 1)

	calls := runner.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, evaluation.TriggerScheduled, calls[0].trigger)
}

func TestWorker_MalformedMessageIsCommittedAndSkipped(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		{Topic: TopicAnalysisRequested, Value: []byte("not json")},
		requestMessage(t, []string{"sup-1"}, false, evaluation.TriggerManual),
	}}
	runner := &fakeRunner{}

	runWorker(t, reader, runner, 2)

	calls := runner.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"sup-1"}, calls[0].supplierIDs)
}

func TestWorker_RunnerFailureStillCommits(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		requestMessage(t, []string{"sup-1"}, false, evaluation.TriggerManual),
	}}
	runner := &fakeRunner{err: assert.AnError}

	runWorker(t, reader, runner, 1)

	require.Len(t, runner.snapshot(), 1)
	assert.Equal(t, 1, reader.commitCount())
}

func TestWorker_TransientFailureIsRetried(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		requestMessage(t, []string{"sup-1"}, false, evaluation.TriggerManual),
	}}
	runner := &fakeRunner{failures: 2}

	w := NewWorkerWithReader(reader, runner, nil)
	w.maxRetries = 2
	w.retryBackoff = time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool {
		return reader.commitCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Len(t, runner.snapshot(), 3)
}

func TestWorker_NotFoundIsNotRetried(t *testing.T) {
	reader := &scriptedReader{messages: []kafka.Message{
		requestMessage(t, []string{"sup-1"}, false, evaluation.TriggerManual),
	}}
	runner := &fakeRunner{err: apperrors.New(apperrors.ErrCodeSupplierNotFound, "supplier not found")}

	w := NewWorkerWithReader(reader, runner, nil)
	w.maxRetries = 3
	w.retryBackoff = time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	require.Eventually(t, func() bool {
		return reader.commitCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Len(t, runner.snapshot(), 1)
}

func TestWorker_StartTwiceFails(t *testing.T) {
	reader := &scriptedReader{}
	w := NewWorkerWithReader(reader, &fakeRunner{}, nil)
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
}
