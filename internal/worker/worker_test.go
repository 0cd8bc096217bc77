package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Flagship/internal/action"
	"github.com/shaiso/Flagship/internal/domain"
	"github.com/shaiso/Flagship/internal/engine"
	"github.com/shaiso/Flagship/internal/events"
	"github.com/shaiso/Flagship/internal/filter"
	"github.com/shaiso/Flagship/internal/mq"
	"github.com/shaiso/Flagship/internal/repo"
	"github.com/shaiso/Flagship/internal/step"
	"github.com/shaiso/Flagship/internal/telemetry"
)

// --- fakes ---

type fakeSteps struct {
	docs map[string]domain.StepDoc
	err  error
}

func (f *fakeSteps) GetByID(_ context.Context, id string) (*domain.StepDoc, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &doc, nil
}

type record struct {
	ref    string
	output any
	status domain.InvocationStatus
}

type fakeOutputs struct {
	mu      sync.Mutex
	seed    map[string]any
	records []record
	loadErr error
}

func (f *fakeOutputs) Load(_ context.Context, _ uuid.UUID) (*engine.Context, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	acc := engine.NewContext(nil)
	for ref, out := range f.seed {
		acc.AddStepResult(ref, out, domain.InvocationSucceeded)
	}
	return acc, nil
}

// Record кодирует выход в JSON, как это делает repo.OutputRepo.
func (f *fakeOutputs) Record(_ context.Context, _ uuid.UUID, ref string, output any, status domain.InvocationStatus) error {
	if _, err := json.Marshal(output); err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record{ref, output, status})
	return nil
}

func (f *fakeOutputs) last() record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[len(f.records)-1]
}

type fakePublisher struct {
	published []mq.StepCompletedPayload
	err       error
}

func (f *fakePublisher) PublishStepCompleted(_ context.Context, p mq.StepCompletedPayload) error {
	f.published = append(f.published, p)
	return f.err
}

type fixture struct {
	worker    *Worker
	steps     *fakeSteps
	outputs   *fakeOutputs
	publisher *fakePublisher
	events    *events.Recorder
	metrics   *telemetry.Metrics
}

func newFixture(t *testing.T, docs ...domain.StepDoc) *fixture {
	t.Helper()

	f := &fixture{
		steps:     &fakeSteps{docs: map[string]domain.StepDoc{}},
		outputs:   &fakeOutputs{},
		publisher: &fakePublisher{},
		events:    events.NewRecorder(),
		metrics:   telemetry.NewMetrics(prometheus.NewRegistry()),
	}
	for _, d := range docs {
		f.steps.docs[d.ID] = d
	}

	builder := step.NewBuilder(action.DefaultRegistry(), filter.DefaultRegistry(), step.WithEmitter(f.events))
	f.worker = New(Config{
		Steps:         f.steps,
		Outputs:       f.outputs,
		Publisher:     f.publisher,
		Builder:       builder,
		Metrics:       f.metrics,
		InvokeTimeout: time.Second,
	})
	return f
}

func delayDoc(id string, duration domain.ArgDoc) domain.StepDoc {
	duration.Name = "duration_ms"
	return domain.StepDoc{
		ID:     id,
		Action: action.NameDelay,
		Args:   []domain.ArgDoc{duration},
	}
}

// --- tests ---

func TestProcess_Success(t *testing.T) {
	f := newFixture(t, delayDoc("wait", domain.ArgDoc{Value: 0}))
	runID := uuid.New()

	err := f.worker.Process(context.Background(), mq.InvokePayload{
		RunID:  runID,
		StepID: "wait",
		Input:  map[string]any{"n": 1},
	})
	require.NoError(t, err)

	require.Len(t, f.outputs.records, 2)
	assert.Equal(t, domain.InvocationPending, f.outputs.records[0].status)
	assert.Equal(t, record{"wait", map[string]any{"n": 1}, domain.InvocationSucceeded}, f.outputs.last())

	require.Len(t, f.publisher.published, 1)
	got := f.publisher.published[0]
	assert.Equal(t, runID, got.RunID)
	assert.Equal(t, domain.InvocationSucceeded, got.Status)
	assert.Empty(t, got.Reason)
	assert.Equal(t, map[string]any{"n": 1}, got.Output)

	assert.Equal(t, []events.Kind{events.KindValidationSucceeded}, f.events.Kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Invocations.WithLabelValues(action.NameDelay, telemetry.OutcomeSucceeded)))
}

func TestProcess_StepRef(t *testing.T) {
	f := newFixture(t, delayDoc("wait", domain.ArgDoc{Value: 0}))

	err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "wait", StepRef: "second", Input: 2})
	require.NoError(t, err)

	assert.Equal(t, "second", f.outputs.last().ref)
	assert.Equal(t, "second", f.publisher.published[0].StepRef)
}

func TestProcess_ResolvesReferences(t *testing.T) {
	f := newFixture(t, delayDoc("wait", domain.ArgDoc{Ref: &domain.RefDoc{Step: "prev"}}))
	f.outputs.seed = map[string]any{"prev": 0}

	err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "wait", Input: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.InvocationSucceeded, f.publisher.published[0].Status)
	assert.Equal(t, "x", f.publisher.published[0].Output)
}

func TestProcess_MissingReference(t *testing.T) {
	f := newFixture(t, delayDoc("wait", domain.ArgDoc{Ref: &domain.RefDoc{Step: "prev"}}))

	err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "wait", Input: "x"})
	require.NoError(t, err)

	got := f.publisher.published[0]
	assert.Equal(t, domain.InvocationFailed, got.Status)
	assert.Equal(t, string(step.KindResolutionFailed), got.Reason)
	assert.Nil(t, got.Output)
	assert.Equal(t, []events.Kind{events.KindFailed}, f.events.Kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Invocations.WithLabelValues(action.NameDelay, telemetry.OutcomeFailed)))
}

func TestProcess_Timeout(t *testing.T) {
	f := newFixture(t, delayDoc("slow", domain.ArgDoc{Value: 5000}))
	f.worker.invokeTimeout = 10 * time.Millisecond

	err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "slow"})
	require.NoError(t, err)

	got := f.publisher.published[0]
	assert.Equal(t, domain.InvocationFailed, got.Status)
	assert.Equal(t, string(step.KindExecution), got.Reason)
	assert.Contains(t, got.Error, "cancelled")
}

func TestProcess_OutputNotSerializable(t *testing.T) {
	f := newFixture(t, domain.StepDoc{
		ID:     "divide",
		Action: action.NameExpr,
		Args:   []domain.ArgDoc{{Name: "expression", Value: "value / 0"}},
	})

	// +Inf не кодируется в JSON: результат — FAILED, а не ошибка для requeue
	err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "divide", Input: 1})
	require.NoError(t, err)

	assert.Equal(t, record{"divide", nil, domain.InvocationFailed}, f.outputs.last())

	require.Len(t, f.publisher.published, 1)
	got := f.publisher.published[0]
	assert.Equal(t, domain.InvocationFailed, got.Status)
	assert.Equal(t, string(step.KindExecution), got.Reason)
	assert.Contains(t, got.Error, ErrOutputNotSerializable.Error())
	assert.Nil(t, got.Output)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Invocations.WithLabelValues(action.NameExpr, telemetry.OutcomeFailed)))
}

func TestProcess_StepNotFound(t *testing.T) {
	f := newFixture(t)

	err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "ghost"})
	require.NoError(t, err)

	got := f.publisher.published[0]
	assert.Equal(t, domain.InvocationFailed, got.Status)
	assert.Equal(t, ReasonStepNotFound, got.Reason)
	assert.Len(t, f.outputs.records, 1)
	assert.Empty(t, f.events.Events())
}

func TestProcess_InvalidDeclaration(t *testing.T) {
	f := newFixture(t,
		domain.StepDoc{ID: "bad-action", Action: "teleport"},
		domain.StepDoc{ID: "bad-args", Action: action.NameDelay},
	)

	for _, id := range []string{"bad-action", "bad-args"} {
		t.Run(id, func(t *testing.T) {
			f.publisher.published = nil

			err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: id})
			require.NoError(t, err)

			got := f.publisher.published[0]
			assert.Equal(t, domain.InvocationFailed, got.Status)
			assert.Equal(t, ReasonInvalidDeclaration, got.Reason)
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestProcess_InfrastructureErrors(t *testing.T) {
	t.Run("step store", func(t *testing.T) {
		f := newFixture(t)
		f.steps.err = errors.New("connection refused")

		err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "wait"})
		assert.ErrorContains(t, err, "connection refused")
		assert.Empty(t, f.publisher.published)
	})

	t.Run("output store", func(t *testing.T) {
		f := newFixture(t, delayDoc("wait", domain.ArgDoc{Value: 0}))
		f.outputs.loadErr = errors.New("timeout")

		err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "wait"})
		assert.ErrorContains(t, err, "load outputs")
		assert.Empty(t, f.publisher.published)
	})

	t.Run("publish failure is not an error", func(t *testing.T) {
		f := newFixture(t, delayDoc("wait", domain.ArgDoc{Value: 0}))
		f.publisher.err = errors.New("channel closed")

		err := f.worker.Process(context.Background(), mq.InvokePayload{StepID: "wait"})
		assert.NoError(t, err)
		assert.Equal(t, domain.InvocationSucceeded, f.outputs.last().status)
	})
}

func TestHandleInvoke_RejectsBadPayload(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		payload any
	}{
		{"not an object", "garbage"},
		{"no step id", map[string]any{"run_id": uuid.New().String()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.worker.handleInvoke(context.Background(), &mq.Delivery{
				Message: mq.Message{Type: mq.MessageTypeStepInvoke, Payload: tt.payload},
			})
			assert.ErrorIs(t, err, mq.ErrReject)
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestHandleInvoke_Processes(t *testing.T) {
	f := newFixture(t, delayDoc("wait", domain.ArgDoc{Value: 0}))

	err := f.worker.handleInvoke(context.Background(), &mq.Delivery{
		Message: mq.Message{
			Type:    mq.MessageTypeStepInvoke,
			Payload: map[string]any{"step_id": "wait", "input": 7},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(7), f.publisher.published[0].Output)
}

func TestNew_Defaults(t *testing.T) {
	w := New(Config{})
	assert.Equal(t, defaultInvokeTimeout, w.invokeTimeout)
	assert.Equal(t, defaultPrefetch, w.prefetch)
	assert.NotNil(t, w.logger)
	assert.False(t, w.IsStopped())
}
