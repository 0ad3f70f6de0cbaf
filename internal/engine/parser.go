package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shaiso/Perftool/internal/domain"
)

// planPosition — позиция для ошибок уровня плана.
const planPosition = -1

// ParsePlan разбирает план из JSON.
//
// Числа сохраняют тип литерала: 500 становится int, 0.5 и 1e3 — float64.
// Неизвестные поля верхнего уровня отклоняются.
func ParsePlan(r io.Reader) (*domain.Plan, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var plan domain.Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after plan", ErrInvalidPlan)
	}

	var err error
	if plan.ImplicitConfig, err = normalizeMap(plan.ImplicitConfig); err != nil {
		return nil, fmt.Errorf("%w: implicit_config: %v", ErrInvalidPlan, err)
	}
	for i := range plan.Steps {
		if plan.Steps[i].Config, err = normalizeMap(plan.Steps[i].Config); err != nil {
			return nil, fmt.Errorf("%w: step %d config: %v", ErrInvalidPlan, i, err)
		}
	}

	return &plan, nil
}

// ParsePlanBytes разбирает план из []byte.
func ParsePlanBytes(data []byte) (*domain.Plan, error) {
	return ParsePlan(bytes.NewReader(data))
}

// LoadPlan читает план из файла.
func LoadPlan(path string) (*domain.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	plan, err := ParsePlan(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// Validate выполняет полную валидацию плана.
//
// Проверяет:
// - num_runs >= 1 (0 означает значение по умолчанию)
// - Наличие шагов
// - Наличие имени у каждого шага
// - Известность типа шага (known обычно Registry.Has; nil — не проверять)
func Validate(plan *domain.Plan, known func(name string) bool) error {
	if plan == nil {
		return NewValidationError(planPosition, "steps", "plan has no steps", ErrEmptySteps)
	}

	if plan.NumRuns < 0 {
		return NewValidationError(planPosition, "num_runs",
			fmt.Sprintf("num_runs must be at least 1, got %d", plan.NumRuns), ErrInvalidNumRuns)
	}

	if len(plan.Steps) == 0 {
		return NewValidationError(planPosition, "steps", "plan has no steps", ErrEmptySteps)
	}

	for i := range plan.Steps {
		if err := ValidateStep(i, &plan.Steps[i], known); err != nil {
			return err
		}
	}

	return nil
}

// ValidateStep валидирует один шаг.
func ValidateStep(position int, step *domain.StepDef, known func(name string) bool) error {
	if step.Name == "" {
		return NewValidationError(position, "name", "step has empty name", ErrEmptyStepName)
	}

	if known != nil && !known(step.Name) {
		return NewValidationError(position, "name",
			fmt.Sprintf("unknown step type: %s", step.Name), ErrUnknownStepType)
	}

	return nil
}

// normalizeMap заменяет json.Number на int или float64 во всём дереве.
func normalizeMap(m map[string]any) (map[string]any, error) {
	for k, v := range m {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		m[k] = nv
	}
	return m, nil
}

func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case json.Number:
		return normalizeNumber(t)
	case map[string]any:
		return normalizeMap(t)
	case []any:
		for i, item := range t {
			nv, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			t[i] = nv
		}
		return t, nil
	default:
		return v, nil
	}
}

// normalizeNumber: литерал без дробной части и экспоненты — int, иначе float64.
func normalizeNumber(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("integer out of range: %s", s)
		}
		return int(i), nil
	}

	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number: %s", s)
	}
	return f, nil
}
