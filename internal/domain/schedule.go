package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание повторного запуска плана.
//
// Запуск по cron-выражению ("*/30 * * * *") или по интервалу в секундах.
// Scheduler ждёт NextDueAt, запускает план и вычисляет новое NextDueAt.
type Schedule struct {
	// CronExpr — cron-выражение из 5 полей.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Если задан CronExpr, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между запусками.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для cron. По умолчанию: "UTC".
	Timezone string `json:"timezone,omitempty"`

	// NextDueAt — время следующего запуска.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — ID последнего run.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`

	// Runs — число выполненных запусков.
	Runs int `json:"runs"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if s.NextDueAt == nil {
		return false
	}
	return !now.Before(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске.
func (s *Schedule) RecordRun(runID uuid.UUID, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastRunID = &runID
	s.NextDueAt = &nextDue
	s.Runs++
}
