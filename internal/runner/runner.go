// Package runner выполняет планы бенчмарков.
//
// Runner проходит план NumRuns раз; шаги каждой итерации выполняются
// строго последовательно. Первый упавший шаг останавливает run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Perftool/internal/domain"
	"github.com/shaiso/Perftool/internal/engine"
	"github.com/shaiso/Perftool/internal/mq"
	"github.com/shaiso/Perftool/internal/profile"
	"github.com/shaiso/Perftool/internal/report"
	"github.com/shaiso/Perftool/internal/steps"
	"github.com/shaiso/Perftool/internal/telemetry"
)

// Store сохраняет run. Реализация: *repo.Store.
type Store interface {
	CreateRun(ctx context.Context, run *domain.Run) error
	FinishRun(ctx context.Context, run *domain.Run) error
}

// Publisher публикует события выполнения. Реализация: *mq.Publisher.
type Publisher interface {
	PublishStepCompleted(ctx context.Context, payload mq.StepCompletedPayload) error
	PublishRunCompleted(ctx context.Context, payload mq.RunCompletedPayload) error
}

// Config — конфигурация Runner.
type Config struct {
	// Registry — типы шагов. Обязателен.
	Registry *steps.Registry

	// Store — хранилище результатов (опционально).
	Store Store

	// Publisher — публикация событий (опционально).
	Publisher Publisher

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// Logger — логгер. По умолчанию slog.Default().
	Logger *slog.Logger
}

// Runner выполняет планы.
type Runner struct {
	registry  *steps.Registry
	store     Store
	publisher Publisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// New создаёт Runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		registry:  cfg.Registry,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}

// Run выполняет план.
//
// Невалидный план (в том числе ошибка конфигурации любого шага)
// возвращает ошибку без run: ни один шаг при этом не выполняется. В остальных случаях run
// возвращается всегда, в том числе вместе с ошибкой упавшего шага:
// в нём есть записи шагов, выполненных до сбоя, и сводка по ним.
func (r *Runner) Run(ctx context.Context, plan *domain.Plan) (*domain.Run, error) {
	if err := Validate(plan, r.registry); err != nil {
		return nil, err
	}

	run := &domain.Run{
		ID:         uuid.New(),
		PlanName:   plan.Name,
		Iterations: plan.Iterations(),
		CreatedAt:  time.Now(),
	}
	run.MarkRunning()

	logger := telemetry.WithPlan(telemetry.WithRunID(r.logger, run.ID.String()), plan.Name)
	logger.Info("run started", "iterations", run.Iterations, "steps", len(plan.Steps))

	if r.store != nil {
		if err := r.store.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}

	runErr := r.execute(ctx, plan, run, logger)

	run.Summary = report.Summarize(run.Results)
	if runErr != nil {
		run.MarkFailed(runErr.Error())
		logger.Error("run failed", "error", runErr, "duration", run.Duration())
	} else {
		run.MarkSucceeded()
		logger.Info("run completed", "results", len(run.Results), "duration", run.Duration())
	}

	if r.metrics != nil {
		r.metrics.RunsTotal.WithLabelValues(run.Status.String()).Inc()
	}

	// Итог сохраняется и после отмены ctx.
	finishCtx := context.WithoutCancel(ctx)

	if r.store != nil {
		if err := r.store.FinishRun(finishCtx, run); err != nil {
			logger.Error("failed to persist run", "error", err)
			if runErr == nil {
				runErr = fmt.Errorf("persist run: %w", err)
			}
		}
	}

	if r.publisher != nil {
		err := r.publisher.PublishRunCompleted(finishCtx, mq.RunCompletedPayload{
			RunID:    run.ID,
			PlanName: run.PlanName,
			Status:   run.Status.String(),
			Error:    run.Error,
			Summary:  run.Summary,
		})
		if err != nil {
			logger.Warn("failed to publish run.completed", "error", err)
		}
	}

	return run, runErr
}

// execute выполняет итерации плана и дописывает результаты в run.
// Перед каждой итерацией собираются все её шаги.
func (r *Runner) execute(ctx context.Context, plan *domain.Plan, run *domain.Run, logger *slog.Logger) error {
	for iteration := 1; iteration <= run.Iterations; iteration++ {
		built, err := r.buildIteration(plan, iteration, logger)
		if err != nil {
			var verr *engine.ValidationError
			position := 0
			if errors.As(err, &verr) {
				position = verr.Position
			}
			def := &plan.Steps[position]
			r.stepFinished(ctx, run.ID, iteration, position, def.Name, "", nil, err, logger)
			return fmt.Errorf("iteration %d: %w", iteration, err)
		}

		for position, step := range built {
			def := &plan.Steps[position]
			stepLogger := telemetry.WithStep(logger, iteration, position)

			records, err := executeStep(ctx, step)
			if err != nil {
				r.stepFinished(ctx, run.ID, iteration, position, def.Name, "", nil, err, stepLogger)
				return fmt.Errorf("iteration %d, step %d (%s): %w", iteration, position, def.Name, err)
			}

			for _, rec := range records {
				res := domain.StepResult{
					RunID:      run.ID,
					Iteration:  iteration,
					Position:   position,
					Label:      stringField(rec, steps.KeyLabel, def.Name),
					CustomName: stringField(rec, steps.KeyCustomName, def.Name),
					Measures:   rec,
					CreatedAt:  time.Now(),
				}
				run.Results = append(run.Results, res)
				r.stepFinished(ctx, run.ID, iteration, position, res.Label, res.CustomName, rec, nil, stepLogger)
			}
		}
	}
	return nil
}

// buildIteration собирает все шаги итерации через реестр.
// Step одноразовый, поэтому каждая итерация получает свои экземпляры.
func (r *Runner) buildIteration(plan *domain.Plan, iteration int, logger *slog.Logger) ([]*steps.Step, error) {
	return buildSteps(plan, r.registry, func(position int, def *domain.StepDef) []steps.Option {
		opts := []steps.Option{steps.WithLogger(telemetry.WithStep(logger, iteration, position))}
		if r.metrics != nil {
			opts = append(opts, steps.WithMeasures(profile.Observe{
				Observer: r.metrics.StepDuration.WithLabelValues(def.Name),
			}))
		}
		return opts
	})
}

// executeStep выполняет собранный шаг, если ctx ещё не отменён.
func executeStep(ctx context.Context, step *steps.Step) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", steps.ErrStepCancelled, err)
	}
	return step.Execute(ctx)
}

// stepFinished обновляет метрики и публикует step.completed.
func (r *Runner) stepFinished(ctx context.Context, runID uuid.UUID, iteration, position int,
	label, customName string, measures map[string]any, stepErr error, logger *slog.Logger) {

	status := domain.StepStatusSucceeded
	errText := ""
	if stepErr != nil {
		status = domain.StepStatusFailed
		errText = stepErr.Error()
	}

	if r.metrics != nil {
		r.metrics.StepsTotal.WithLabelValues(label, string(status)).Inc()
	}

	if r.publisher == nil {
		return
	}

	err := r.publisher.PublishStepCompleted(context.WithoutCancel(ctx), mq.StepCompletedPayload{
		RunID:      runID,
		Iteration:  iteration,
		Position:   position,
		Label:      label,
		CustomName: customName,
		Status:     string(status),
		Error:      errText,
		Measures:   measures,
	})
	if err != nil {
		logger.Warn("failed to publish step.completed", "error", err)
	}
}

func stringField(rec map[string]any, key, def string) string {
	if s, ok := rec[key].(string); ok {
		return s
	}
	return def
}
