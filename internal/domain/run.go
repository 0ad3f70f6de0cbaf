package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — одно выполнение плана.
//
// Run создаётся раннером при запуске плана (из CLI, по расписанию
// или из очереди plans.submitted) и содержит результаты всех шагов
// всех итераций.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// PlanName — имя выполняемого плана.
	PlanName string `json:"plan_name"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Iterations — запланированное число итераций (num_runs плана).
	Iterations int `json:"iterations"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	// Nil, если run ещё выполняется.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED.
	Error string `json:"error,omitempty"`

	// Results — записи шагов в порядке выполнения.
	Results []StepResult `json:"results,omitempty"`

	// Summary — агрегаты измерений по шагам.
	Summary []StepSummary `json:"summary,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// StepResult — запись одного выполнения шага.
type StepResult struct {
	// RunID — run, к которому относится запись.
	RunID uuid.UUID `json:"run_id"`

	// Iteration — номер итерации, начиная с 1.
	Iteration int `json:"iteration"`

	// Position — позиция шага в плане, начиная с 0.
	Position int `json:"position"`

	// Label — тип шага.
	Label string `json:"label"`

	// CustomName — отображаемое имя шага.
	CustomName string `json:"custom_name"`

	// Measures — запись, возвращённая шагом (включая label, custom_name, took).
	Measures map[string]any `json:"measures"`

	// CreatedAt — время записи.
	CreatedAt time.Time `json:"created_at"`
}

// StepSummary — агрегаты измерений одного шага плана по итерациям.
type StepSummary struct {
	Position   int                       `json:"position"`
	Label      string                    `json:"label"`
	CustomName string                    `json:"custom_name"`
	Measures   map[string]MeasureSummary `json:"measures"`
}

// MeasureSummary — статистика одного числового измерения.
type MeasureSummary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded() {
	now := time.Now()
	r.Status = RunStatusSucceeded
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED с ошибкой.
func (r *Run) MarkFailed(err string) {
	now := time.Now()
	r.Status = RunStatusFailed
	r.FinishedAt = &now
	r.Error = err
}
