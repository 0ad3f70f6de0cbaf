package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/Perftool/internal/domain"
	"github.com/shaiso/Perftool/internal/engine"
	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/params"
	"github.com/shaiso/Perftool/internal/runner"
	"github.com/shaiso/Perftool/internal/steps"
)

const smokePlan = `{
  "name": "smoke",
  "num_runs": 3,
  "steps": [
    {"name": "noop", "config": {"custom_name": "warmup"}}
  ]
}`

func TestStepsCmd(t *testing.T) {
	stdout, _, err := execute(t, newTestDeps(nil, nil), "steps")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"STEP", "noop", "broken"} {
		if !strings.Contains(stdout, name) {
			t.Errorf("stdout missing %q:\n%s", name, stdout)
		}
	}
}

func TestValidateCmd(t *testing.T) {
	path := writePlan(t, smokePlan)

	stdout, stderr, err := execute(t, newTestDeps(nil, nil), "validate", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "warmup") {
		t.Errorf("stdout missing custom name:\n%s", stdout)
	}
	if !strings.Contains(stderr, `Plan "smoke" is valid: 1 steps, 3 iterations`) {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestValidateCmd_UnknownStep(t *testing.T) {
	path := writePlan(t, `{"steps": [{"name": "http"}]}`)

	_, _, err := execute(t, newTestDeps(nil, nil), "validate", path)
	if !errors.Is(err, engine.ErrUnknownStepType) {
		t.Errorf("expected ErrUnknownStepType, got %v", err)
	}
}

func TestValidateCmd_StepConfig(t *testing.T) {
	path := writePlan(t, `{"steps": [{"name": "noop"}, {"name": "noop", "config": {"custom_name": 7}}]}`)

	_, stderr, err := execute(t, newTestDeps(nil, nil), "validate", path)
	if !errors.Is(err, params.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if strings.Contains(stderr, "is valid") {
		t.Errorf("misconfigured plan reported valid: %q", stderr)
	}
}

func TestRunCmd_Table(t *testing.T) {
	path := writePlan(t, smokePlan)

	stdout, stderr, err := execute(t, newTestDeps(nil, nil), "run", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"MEASURE", "noop", "warmup", "value", "3"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr, "SUCCEEDED") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRunCmd_JSON(t *testing.T) {
	path := writePlan(t, smokePlan)

	stdout, _, err := execute(t, newTestDeps(nil, nil), "--json", "run", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var run domain.Run
	if err := json.Unmarshal([]byte(stdout), &run); err != nil {
		t.Fatalf("stdout is not a run: %v\n%s", err, stdout)
	}
	if run.Status != domain.RunStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", run.Status)
	}
	if len(run.Results) != 3 {
		t.Errorf("expected 3 records, got %d", len(run.Results))
	}
	if len(run.Summary) != 1 || run.Summary[0].Measures["value"].Count != 3 {
		t.Errorf("unexpected summary: %+v", run.Summary)
	}
}

func TestRunCmd_StepFailure(t *testing.T) {
	path := writePlan(t, `{"steps": [{"name": "noop"}, {"name": "broken"}]}`)

	_, stderr, err := execute(t, newTestDeps(nil, nil), "run", path)
	if !errors.Is(err, steps.ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult, got %v", err)
	}
	if !strings.Contains(stderr, "Error: ") || !strings.Contains(stderr, "FAILED") {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestRunCmd_PersistAndPublish(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	path := writePlan(t, smokePlan)

	_, _, err := execute(t, newTestDeps(store, pub), "run", path, "--persist", "--publish")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.created != 1 || store.finished != 1 {
		t.Errorf("expected run persisted once, got created=%d finished=%d", store.created, store.finished)
	}
	if !store.closed || !pub.closed {
		t.Error("connections must be closed")
	}
	if pub.stepEvents != 3 || pub.runEvents != 1 {
		t.Errorf("expected 3 step and 1 run events, got %d and %d", pub.stepEvents, pub.runEvents)
	}
}

func TestRunCmd_WithoutFlagsNoConnections(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	path := writePlan(t, smokePlan)

	if _, _, err := execute(t, newTestDeps(store, pub), "run", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.opened || pub.opened {
		t.Error("connections must not be opened without --persist/--publish")
	}
}

func TestRunCmd_InvalidSchedule(t *testing.T) {
	path := writePlan(t, smokePlan)

	_, _, err := execute(t, newTestDeps(nil, nil), "run", path, "--schedule", "every minute")
	if err == nil || !strings.Contains(err.Error(), "invalid cron expression") {
		t.Errorf("expected cron error, got %v", err)
	}
}

func TestRunCmd_ScheduleStopsOnCancel(t *testing.T) {
	path := writePlan(t, smokePlan)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCmd("test", newTestDeps(nil, nil))
	cmd.SetArgs([]string{"run", path, "--schedule", "*/5 * * * *"})
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Errorf("cancelled schedule must exit cleanly, got %v", err)
	}
}

func TestSubmitCmd(t *testing.T) {
	pub := &fakePublisher{}
	path := writePlan(t, smokePlan)

	_, stderr, err := execute(t, newTestDeps(nil, pub), "submit", path, "--persist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pub.submitted) != 1 {
		t.Fatalf("expected 1 submitted plan, got %d", len(pub.submitted))
	}
	got := pub.submitted[0]
	if !got.Persist {
		t.Error("expected persist flag")
	}
	if string(got.Plan) != smokePlan {
		t.Errorf("plan must be sent unchanged, got %s", got.Plan)
	}
	if !strings.Contains(stderr, `Plan "smoke" submitted`) {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestSubmitCmd_InvalidPlanNotPublished(t *testing.T) {
	pub := &fakePublisher{}
	path := writePlan(t, `{"steps": []}`)

	_, _, err := execute(t, newTestDeps(nil, pub), "submit", path)
	if !errors.Is(err, engine.ErrEmptySteps) {
		t.Errorf("expected ErrEmptySteps, got %v", err)
	}
	if pub.opened {
		t.Error("invalid plan must not open publisher")
	}
}

func TestSummaryRows(t *testing.T) {
	rows := summaryRows([]domain.StepSummary{{
		Position:   1,
		Label:      "query",
		CustomName: "knn",
		Measures: map[string]domain.MeasureSummary{
			"took":     {Count: 2, Mean: 1.5, Min: 1, Max: 2, P50: 1, P90: 2, P99: 2},
			"recall@K": {Count: 2, Mean: 0.9, Min: 0.8, Max: 1, P50: 0.8, P90: 1, P99: 1},
		},
	}})

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][3] != "recall@K" || rows[1][3] != "took" {
		t.Errorf("measures must be sorted, got %q and %q", rows[0][3], rows[1][3])
	}
	if rows[1][5] != "1.500" {
		t.Errorf("unexpected mean: %q", rows[1][5])
	}
}

// Helpers

func execute(t *testing.T, deps Deps, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	deps.Stdout = &stdout
	deps.Stderr = &stderr

	cmd := NewRootCmd("test", deps)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func writePlan(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestDeps(store *fakeStore, pub *fakePublisher) Deps {
	return Deps{
		Registry: func() *steps.Registry {
			registry := steps.NewRegistry()
			registry.Register("noop", func(steps.Config) (steps.Kind, error) {
				return steps.FuncStep{
					Name: "noop",
					Fn: func(context.Context) (map[string]any, error) {
						return map[string]any{"value": 1}, nil
					},
				}, nil
			})
			registry.Register("broken", func(steps.Config) (steps.Kind, error) {
				return steps.BaseStep{}, nil
			})
			return registry
		},
		Store: func(context.Context) (runner.Store, func(), error) {
			if store == nil {
				return nil, nil, errors.New("no store")
			}
			store.opened = true
			return store, func() { store.closed = true }, nil
		},
		Publisher: func(context.Context) (Publisher, func(), error) {
			if pub == nil {
				return nil, nil, errors.New("no broker")
			}
			pub.opened = true
			return pub, func() { pub.closed = true }, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

type fakeStore struct {
	opened   bool
	closed   bool
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
	opened     bool
	closed     bool
	stepEvents int
	runEvents  int
	submitted  []mq.PlanSubmittedPayload
}

func (p *fakePublisher) PublishStepCompleted(context.Context, mq.StepCompletedPayload) error {
	p.stepEvents++
	return nil
}

func (p *fakePublisher) PublishRunCompleted(context.Context, mq.RunCompletedPayload) error {
	p.runEvents++
	return nil
}

func (p *fakePublisher) PublishPlanSubmitted(_ context.Context, payload mq.PlanSubmittedPayload) error {
	p.submitted = append(p.submitted, payload)
	return nil
}
