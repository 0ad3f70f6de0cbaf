package worker

import "errors"

// Ошибки воркера.
var (
	// ErrInvalidPayload — сообщение plan.submitted не удалось разобрать.
	ErrInvalidPayload = errors.New("invalid plan.submitted payload")

	// ErrWorkerStopped — воркер остановлен.
	ErrWorkerStopped = errors.New("worker stopped")
)
