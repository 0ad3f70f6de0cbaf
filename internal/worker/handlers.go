package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/Perftool/internal/engine"
	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/runner"
)

// handlePlanSubmitted обрабатывает сообщение из очереди plans.submitted.
//
// Политика подтверждения:
//   - некорректный payload — ошибка без requeue (сообщение уходит в DLQ)
//   - невалидный план (включая конфигурацию шагов) — ack, ошибка логируется
//   - упавший шаг — ack, итог уже опубликован в run.completed
//   - остановка воркера во время run — requeue
func (w *Worker) handlePlanSubmitted(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.PlanSubmittedPayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	logger := w.logger.With("message_id", delivery.Message.ID)

	plan, err := engine.ParsePlanBytes(payload.Plan)
	if err != nil {
		logger.Error("rejected plan", "error", err)
		return nil
	}
	if err := runner.Validate(plan, w.registry); err != nil {
		logger.Error("rejected plan", "plan", plan.Name, "error", err)
		return nil
	}

	cfg := runner.Config{
		Registry:  w.registry,
		Publisher: w.publisher,
		Metrics:   w.metrics,
		Logger:    logger,
	}
	if payload.Persist {
		if w.store == nil {
			logger.Warn("persist requested but no store configured", "plan", plan.Name)
		} else {
			cfg.Store = w.store
		}
	}

	run, err := runner.New(cfg).Run(ctx, plan)
	if err != nil {
		if ctx.Err() != nil {
			return mq.Requeue(err)
		}
		if run == nil {
			// Сбой до начала выполнения (например, БД недоступна).
			return mq.Requeue(err)
		}
		logger.Warn("plan finished with failure", "run_id", run.ID, "plan", plan.Name, "error", err)
		return nil
	}

	logger.Info("plan completed", "run_id", run.ID, "plan", plan.Name, "results", len(run.Results))
	return nil
}
