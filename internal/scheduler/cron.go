package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shaiso/Perftool/internal/domain"
)

// ErrInvalidSchedule — расписание без cron-выражения и интервала.
var ErrInvalidSchedule = errors.New("schedule has neither cron_expr nor interval_sec")

// cronParser — парсер cron-выражений из 5 полей.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextDue вычисляет следующее время запуска после from.
// Cron вычисляется в timezone расписания, результат в UTC.
func NextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	loc := time.UTC
	if sched.Timezone != "" {
		l, err := time.LoadLocation(sched.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("load timezone %q: %w", sched.Timezone, err)
		}
		loc = l
	}

	fromInTz := from.In(loc)

	if sched.IsCron() {
		return nextCron(sched.CronExpr, fromInTz)
	}

	if sched.IsInterval() {
		return fromInTz.Add(time.Duration(sched.IntervalSec) * time.Second).UTC(), nil
	}

	return time.Time{}, ErrInvalidSchedule
}

// nextCron вычисляет следующее время по cron-выражению.
func nextCron(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	return schedule.Next(from).UTC(), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
