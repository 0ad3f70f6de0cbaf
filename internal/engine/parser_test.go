package engine

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/Perftool/internal/domain"
)

const samplePlan = `{
	"name": "hnsw-ingest",
	"num_runs": 3,
	"implicit_config": {"index_name": "target_index", "field_name": "target_field"},
	"steps": [
		{"name": "delete_index", "config": {"custom_name": "cleanup"}},
		{"name": "ingest", "config": {"dataset_path": "data/sift.fvecs", "bulk_size": 500, "ratio": 0.5, "big": 1e3}},
		{"name": "refresh_index"}
	]
}`

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(samplePlan))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.Name != "hnsw-ingest" {
		t.Errorf("expected name hnsw-ingest, got %s", plan.Name)
	}
	if plan.Iterations() != 3 {
		t.Errorf("expected 3 iterations, got %d", plan.Iterations())
	}
	if len(plan.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(plan.Steps))
	}
	if plan.ImplicitConfig["index_name"] != "target_index" {
		t.Errorf("unexpected implicit config: %v", plan.ImplicitConfig)
	}
	if plan.Steps[2].Config != nil {
		t.Errorf("expected nil config for step without config, got %v", plan.Steps[2].Config)
	}
}

func TestParsePlan_NumberTypes(t *testing.T) {
	plan, err := ParsePlan(strings.NewReader(samplePlan))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := plan.Steps[1].Config

	if v, ok := cfg["bulk_size"].(int); !ok || v != 500 {
		t.Errorf("expected int 500, got %T %v", cfg["bulk_size"], cfg["bulk_size"])
	}
	if v, ok := cfg["ratio"].(float64); !ok || v != 0.5 {
		t.Errorf("expected float64 0.5, got %T %v", cfg["ratio"], cfg["ratio"])
	}
	if v, ok := cfg["big"].(float64); !ok || v != 1000 {
		t.Errorf("expected float64 1000, got %T %v", cfg["big"], cfg["big"])
	}
}

func TestParsePlan_NestedNumbers(t *testing.T) {
	data := `{"steps": [{"name": "create_index", "config": {
		"index_spec": {"settings": {"number_of_shards": 1, "knn": {"ef": [16, 0.25]}}}
	}}]}`

	plan, err := ParsePlanBytes([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	settings := plan.Steps[0].Config["index_spec"].(map[string]any)["settings"].(map[string]any)
	if _, ok := settings["number_of_shards"].(int); !ok {
		t.Errorf("expected int shards, got %T", settings["number_of_shards"])
	}
	ef := settings["knn"].(map[string]any)["ef"].([]any)
	if _, ok := ef[0].(int); !ok {
		t.Errorf("expected int in array, got %T", ef[0])
	}
	if _, ok := ef[1].(float64); !ok {
		t.Errorf("expected float64 in array, got %T", ef[1])
	}
}

func TestParsePlan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"steps": [`},
		{"unknown field", `{"steps": [], "depends_on": []}`},
		{"fractional num_runs", `{"num_runs": 1.5, "steps": []}`},
		{"integer overflow", `{"steps": [{"name": "x", "config": {"n": 99999999999999999999}}]}`},
		{"trailing data", `{"steps": []} {"steps": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(strings.NewReader(tt.data))
			if !errors.Is(err, ErrInvalidPlan) {
				t.Errorf("expected ErrInvalidPlan, got %v", err)
			}
		})
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(samplePlan), 0o644); err != nil {
		t.Fatal(err)
	}

	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Name != "hnsw-ingest" {
		t.Errorf("expected hnsw-ingest, got %s", plan.Name)
	}

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	known := func(name string) bool { return name == "delay" || name == "ingest" }

	tests := []struct {
		name     string
		plan     *domain.Plan
		wantErr  error
		position int
	}{
		{
			name:     "nil plan",
			plan:     nil,
			wantErr:  ErrEmptySteps,
			position: -1,
		},
		{
			name:     "empty steps",
			plan:     &domain.Plan{},
			wantErr:  ErrEmptySteps,
			position: -1,
		},
		{
			name:     "negative num_runs",
			plan:     &domain.Plan{NumRuns: -1, Steps: []domain.StepDef{{Name: "delay"}}},
			wantErr:  ErrInvalidNumRuns,
			position: -1,
		},
		{
			name:     "empty step name",
			plan:     &domain.Plan{Steps: []domain.StepDef{{Name: "delay"}, {Name: ""}}},
			wantErr:  ErrEmptyStepName,
			position: 1,
		},
		{
			name:     "unknown step",
			plan:     &domain.Plan{Steps: []domain.StepDef{{Name: "http"}}},
			wantErr:  ErrUnknownStepType,
			position: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.plan, known)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if vErr.Position != tt.position {
				t.Errorf("expected position %d, got %d", tt.position, vErr.Position)
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	plan := &domain.Plan{
		NumRuns: 2,
		Steps:   []domain.StepDef{{Name: "delay"}, {Name: "ingest"}},
	}

	if err := Validate(plan, func(string) bool { return true }); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// nil known пропускает проверку типов
	plan.Steps = append(plan.Steps, domain.StepDef{Name: "anything"})
	if err := Validate(plan, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError(2, "name", "unknown step type: x", ErrUnknownStepType)
	if err.Error() != "step 2: unknown step type: x" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	err = NewValidationError(-1, "steps", "plan has no steps", ErrEmptySteps)
	if err.Error() != "plan has no steps" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
