package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shaiso/Perftool/internal/domain"
)

func TestNextDue_Cron(t *testing.T) {
	from := time.Date(2026, 3, 10, 9, 7, 30, 0, time.UTC)

	next, err := NextDue(&domain.Schedule{CronExpr: "*/15 * * * *"}, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := time.Date(2026, 3, 10, 9, 15, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextDue_Timezone(t *testing.T) {
	from := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)

	next, err := NextDue(&domain.Schedule{CronExpr: "0 9 * * *", Timezone: "Europe/Moscow"}, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 09:00 MSK = 06:00 UTC
	want := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
	if next.Location() != time.UTC {
		t.Errorf("expected UTC result, got %v", next.Location())
	}
}

func TestNextDue_Interval(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	next, err := NextDue(&domain.Schedule{IntervalSec: 90}, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := from.Add(90 * time.Second); !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextDue_Errors(t *testing.T) {
	tests := []struct {
		name  string
		sched *domain.Schedule
	}{
		{"empty", &domain.Schedule{}},
		{"bad cron", &domain.Schedule{CronExpr: "every minute"}},
		{"bad timezone", &domain.Schedule{CronExpr: "* * * * *", Timezone: "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NextDue(tt.sched, time.Now()); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := NextDue(&domain.Schedule{}, time.Now()); !errors.Is(err, ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule, got %v", err)
	}
}

func TestValidateCronExpr(t *testing.T) {
	valid := []string{"* * * * *", "0 9 * * 1-5", "*/5 * * * *"}
	for _, expr := range valid {
		if err := ValidateCronExpr(expr); err != nil {
			t.Errorf("%q: unexpected error: %v", expr, err)
		}
	}

	invalid := []string{"", "* * * *", "0 0 0 * * *", "61 * * * *"}
	for _, expr := range invalid {
		if err := ValidateCronExpr(expr); err == nil {
			t.Errorf("%q: expected error", expr)
		}
	}
}

func TestScheduler_Tick(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var runs int
	runID := uuid.New()

	s, err := New(Config{
		Schedule: &domain.Schedule{IntervalSec: 60},
		Fn: func(context.Context) (uuid.UUID, error) {
			runs++
			return runID, nil
		},
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.now = func() time.Time { return now }
	s.schedule.NextDueAt = &now

	ran, err := s.Tick(context.Background())
	if err != nil || !ran {
		t.Fatalf("expected run, got ran=%v err=%v", ran, err)
	}
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
	if *s.Schedule().LastRunID != runID {
		t.Error("expected last run id recorded")
	}
	if want := now.Add(time.Minute); !s.Schedule().NextDueAt.Equal(want) {
		t.Errorf("expected next due %v, got %v", want, s.Schedule().NextDueAt)
	}

	// Не время — запуска нет.
	ran, err = s.Tick(context.Background())
	if err != nil || ran {
		t.Errorf("expected no run, got ran=%v err=%v", ran, err)
	}
}

func TestScheduler_TickRunError(t *testing.T) {
	now := time.Now()
	s, err := New(Config{
		Schedule: &domain.Schedule{IntervalSec: 1},
		Fn: func(context.Context) (uuid.UUID, error) {
			return uuid.Nil, errors.New("step failed")
		},
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.now = func() time.Time { return now }
	s.schedule.NextDueAt = &now

	ran, err := s.Tick(context.Background())
	if err != nil || !ran {
		t.Errorf("run error must not stop schedule, got ran=%v err=%v", ran, err)
	}
	if s.Schedule().Runs != 1 {
		t.Errorf("expected failed run recorded, got %d", s.Schedule().Runs)
	}
}

func TestScheduler_RunMaxRuns(t *testing.T) {
	var runs int
	s, err := New(Config{
		Schedule: &domain.Schedule{IntervalSec: 1},
		Fn: func(context.Context) (uuid.UUID, error) {
			runs++
			return uuid.New(), nil
		},
		Logger:  discardLogger(),
		MaxRuns: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := time.Now()
	s.schedule.NextDueAt = &start
	clock := start
	// Каждое обращение к часам сдвигает время на час: тики идут без ожидания.
	s.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs != 2 {
		t.Errorf("expected 2 runs, got %d", runs)
	}
}

func TestLoop_Cancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Loop(ctx, "0 0 1 1 *", func(context.Context) (uuid.UUID, error) {
		t.Error("must not run")
		return uuid.Nil, nil
	}, discardLogger())

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestLoop_InvalidExpr(t *testing.T) {
	err := Loop(context.Background(), "bad", func(context.Context) (uuid.UUID, error) {
		return uuid.Nil, nil
	}, discardLogger())
	if err == nil {
		t.Error("expected error")
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
