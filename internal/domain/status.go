package domain

// RunStatus — статус выполнения плана.
//
// Жизненный цикл:
//
//	RUNNING → SUCCEEDED
//	        ↘ FAILED
type RunStatus string

const (
	// RunStatusRunning — план выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все итерации выполнены успешно.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — выполнение остановлено на упавшем шаге.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// StepStatus — исход выполнения одного шага (метка метрик и событий).
type StepStatus string

const (
	StepStatusSucceeded StepStatus = "SUCCEEDED"
	StepStatusFailed    StepStatus = "FAILED"
)
