package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Perftool/internal/domain"
)

// RunFunc запускает план и возвращает ID созданного run.
type RunFunc func(ctx context.Context) (uuid.UUID, error)

// Scheduler повторно запускает план по расписанию.
type Scheduler struct {
	schedule *domain.Schedule
	fn       RunFunc
	logger   *slog.Logger
	maxRuns  int
	now      func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedule *domain.Schedule
	Fn       RunFunc
	Logger   *slog.Logger
	MaxRuns  int // 0 — без ограничения
}

// New создаёт Scheduler и вычисляет первое время запуска.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Schedule == nil || cfg.Fn == nil {
		return nil, fmt.Errorf("scheduler requires schedule and run func")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		schedule: cfg.Schedule,
		fn:       cfg.Fn,
		logger:   logger,
		maxRuns:  cfg.MaxRuns,
		now:      time.Now,
	}

	if s.schedule.NextDueAt == nil {
		next, err := NextDue(s.schedule, s.now())
		if err != nil {
			return nil, err
		}
		s.schedule.NextDueAt = &next
	}

	return s, nil
}

// Schedule возвращает расписание с текущим состоянием.
func (s *Scheduler) Schedule() *domain.Schedule {
	return s.schedule
}

// Tick запускает план, если подошло время.
//
// Ошибка запуска логируется и не останавливает расписание: следующий
// запуск всё равно планируется. Возвращает true, если план запускался.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	now := s.now()
	if !s.schedule.IsDue(now) {
		return false, nil
	}

	runID, err := s.fn(ctx)
	if err != nil {
		s.logger.Error("scheduled run failed", "run_id", runID, "error", err)
	} else {
		s.logger.Info("scheduled run completed", "run_id", runID)
	}

	// Следующее время считается от момента завершения, пропущенные тики не догоняются.
	next, err := NextDue(s.schedule, s.now())
	if err != nil {
		return true, fmt.Errorf("calculate next due: %w", err)
	}
	s.schedule.RecordRun(runID, next)

	s.logger.Debug("next run scheduled", "next_due_at", next, "runs", s.schedule.Runs)

	return true, nil
}

// Run ждёт NextDueAt и запускает план, пока ctx не отменён
// или не достигнут MaxRuns.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if s.maxRuns > 0 && s.schedule.Runs >= s.maxRuns {
			return nil
		}

		wait := s.schedule.NextDueAt.Sub(s.now())
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if _, err := s.Tick(ctx); err != nil {
			return err
		}
	}
}

// Loop запускает fn по cron-выражению expr, пока ctx не отменён.
func Loop(ctx context.Context, expr string, fn RunFunc, logger *slog.Logger) error {
	if err := ValidateCronExpr(expr); err != nil {
		return err
	}

	s, err := New(Config{
		Schedule: &domain.Schedule{CronExpr: expr},
		Fn:       fn,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	return s.Run(ctx)
}
