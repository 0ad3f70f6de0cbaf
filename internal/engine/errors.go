package engine

import (
	"errors"
	"strconv"
)

// Ошибки валидации плана.
var (
	// ErrEmptySteps — план не содержит шагов.
	ErrEmptySteps = errors.New("plan has no steps")

	// ErrEmptyStepName — шаг без имени типа.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrUnknownStepType — тип шага не зарегистрирован.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrInvalidNumRuns — num_runs меньше 1.
	ErrInvalidNumRuns = errors.New("num_runs must be at least 1")
)

// ErrInvalidPlan — план не удалось разобрать.
var ErrInvalidPlan = errors.New("invalid plan")

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Position int    // позиция шага в плане, -1 для полей плана
	Field    string // поле, вызвавшее ошибку
	Message  string // описание ошибки
	Err      error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Position >= 0 {
		return "step " + strconv.Itoa(e.Position) + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(position int, field, message string, err error) *ValidationError {
	return &ValidationError{
		Position: position,
		Field:    field,
		Message:  message,
		Err:      err,
	}
}
