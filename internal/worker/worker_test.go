package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shaiso/Perftool/internal/domain"
	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/steps"
)

func TestHandlePlanSubmitted(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStore{}
	w := newTestWorker(pub, store)

	plan := `{"name": "smoke", "num_runs": 2, "steps": [{"name": "noop", "config": {"custom_name": "warm"}}]}`
	err := w.handlePlanSubmitted(context.Background(), delivery(t, plan, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.runs) != 1 {
		t.Fatalf("expected 1 run event, got %d", len(pub.runs))
	}
	if pub.runs[0].Status != string(domain.RunStatusSucceeded) || pub.runs[0].PlanName != "smoke" {
		t.Errorf("unexpected run event: %+v", pub.runs[0])
	}
	if len(pub.steps) != 2 {
		t.Errorf("expected 2 step events, got %d", len(pub.steps))
	}
	if store.finished != 1 {
		t.Errorf("expected persisted run, got %d", store.finished)
	}
}

func TestHandlePlanSubmitted_NoPersist(t *testing.T) {
	store := &fakeStore{}
	w := newTestWorker(&fakePublisher{}, store)

	plan := `{"steps": [{"name": "noop"}]}`
	if err := w.handlePlanSubmitted(context.Background(), delivery(t, plan, false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.created != 0 {
		t.Error("run must not be persisted without persist flag")
	}
}

func TestHandlePlanSubmitted_InvalidPlanAcked(t *testing.T) {
	pub := &fakePublisher{}
	w := newTestWorker(pub, nil)

	plans := []string{
		`{"steps": []}`,
		`{"steps": [{"name": "http"}]}`,
		`{"steps": [{"name": "noop"}], "on_failure": {}}`,
		`{"steps": [{"name": "noop"}, {"name": "noop", "config": {"custom_name": 7}}]}`,
	}

	for _, plan := range plans {
		if err := w.handlePlanSubmitted(context.Background(), delivery(t, plan, false)); err != nil {
			t.Errorf("%s: invalid plan must be acked, got %v", plan, err)
		}
	}
	if len(pub.runs) != 0 {
		t.Errorf("invalid plans must not run, got %d run events", len(pub.runs))
	}
}

func TestHandlePlanSubmitted_StepFailureAcked(t *testing.T) {
	pub := &fakePublisher{}
	w := newTestWorker(pub, nil)

	plan := `{"steps": [{"name": "broken"}]}`
	if err := w.handlePlanSubmitted(context.Background(), delivery(t, plan, false)); err != nil {
		t.Fatalf("failed run must be acked, got %v", err)
	}
	if len(pub.runs) != 1 || pub.runs[0].Status != string(domain.RunStatusFailed) {
		t.Errorf("expected FAILED run event, got %+v", pub.runs)
	}
}

func TestHandlePlanSubmitted_CancelledRequeued(t *testing.T) {
	w := newTestWorker(&fakePublisher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.handlePlanSubmitted(ctx, delivery(t, `{"steps": [{"name": "noop"}]}`, false))
	if !errors.Is(err, mq.ErrRequeue) {
		t.Errorf("expected requeue, got %v", err)
	}
}

func TestHandlePlanSubmitted_BadPayload(t *testing.T) {
	w := newTestWorker(&fakePublisher{}, nil)

	d := &mq.Delivery{Message: mq.Message{ID: "m", Payload: json.RawMessage(`"not an object"`)}}
	err := w.handlePlanSubmitted(context.Background(), d)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("expected ErrInvalidPayload, got %v", err)
	}
	if errors.Is(err, mq.ErrRequeue) {
		t.Error("bad payload must not be requeued")
	}
}

func TestWorker_StartAfterStop(t *testing.T) {
	w := newTestWorker(nil, nil)
	w.Stop()

	if !w.IsStopped() {
		t.Error("expected stopped worker")
	}
	if err := w.Start(context.Background()); !errors.Is(err, ErrWorkerStopped) {
		t.Errorf("expected ErrWorkerStopped, got %v", err)
	}
}

// Helpers

func newTestWorker(pub *fakePublisher, store *fakeStore) *Worker {
	registry := steps.NewRegistry()
	registry.Register("noop", func(steps.Config) (steps.Kind, error) {
		return steps.FuncStep{
			Name: "noop",
			Fn: func(context.Context) (map[string]any, error) {
				return map[string]any{}, nil
			},
		}, nil
	})
	registry.Register(steps.StepTypeBase, func(steps.Config) (steps.Kind, error) {
		return steps.BaseStep{}, nil
	})
	registry.Register("broken", func(steps.Config) (steps.Kind, error) {
		return steps.BaseStep{}, nil
	})

	cfg := Config{
		Registry: registry,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if pub != nil {
		cfg.Publisher = pub
	}
	if store != nil {
		cfg.Store = store
	}
	return New(cfg)
}

func delivery(t *testing.T, plan string, persist bool) *mq.Delivery {
	t.Helper()

	msg, err := mq.NewMessage(mq.MessageTypePlanSubmitted, mq.PlanSubmittedPayload{
		Plan:    json.RawMessage(plan),
		Persist: persist,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &mq.Delivery{Message: *msg}
}

type fakeStore struct {
	created  int
	finished int
}

func (s *fakeStore) CreateRun(context.Context, *domain.Run) error {
	s.created++
	return nil
}

func (s *fakeStore) FinishRun(context.Context, *domain.Run) error {
	s.finished++
	return nil
}

type fakePublisher struct {
	mu    sync.Mutex
	steps []mq.StepCompletedPayload
	runs  []mq.RunCompletedPayload
}

func (p *fakePublisher) PublishStepCompleted(_ context.Context, payload mq.StepCompletedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append(p.steps, payload)
	return nil
}

func (p *fakePublisher) PublishRunCompleted(_ context.Context, payload mq.RunCompletedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, payload)
	return nil
}
