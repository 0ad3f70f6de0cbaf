package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Perftool/internal/params"
)

const (
	// StepTypeDelay — тип шага задержки.
	StepTypeDelay = "delay"

	// Ключи конфигурации delay.
	configDurationSec = "duration_sec"
	configDurationMs  = "duration_ms"
)

// DelayStep — шаг задержки.
//
// Приостанавливает план на указанное время, например чтобы дать движку
// завершить фоновые merge перед запросами. Поддерживает отмену через context.
//
// Конфигурация:
//
//	{
//	    "duration_sec": 10,    // задержка в секундах
//	    // или
//	    "duration_ms": 5000    // задержка в миллисекундах
//	}
//
// Outputs:
//
//	{"duration_ms": 5000}
type DelayStep struct {
	duration time.Duration
}

// NewDelayStep — Factory для DelayStep.
func NewDelayStep(cfg Config) (Kind, error) {
	duration, err := parseDuration(cfg.Config())
	if err != nil {
		return nil, err
	}
	return &DelayStep{duration: duration}, nil
}

// Label возвращает тип шага.
func (s *DelayStep) Label() string {
	return StepTypeDelay
}

// Measures возвращает ключи измерений.
func (s *DelayStep) Measures() []string {
	return []string{configDurationMs}
}

// Action выполняет задержку.
func (s *DelayStep) Action(ctx context.Context) (map[string]any, error) {
	timer := time.NewTimer(s.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
	case <-timer.C:
		return map[string]any{
			configDurationMs: int(s.duration.Milliseconds()),
		}, nil
	}
}

// parseDuration извлекает длительность из конфигурации.
func parseDuration(config map[string]any) (time.Duration, error) {
	// Сначала проверяем duration_sec
	if _, ok := config[configDurationSec]; ok {
		sec, err := params.ParseInt(configDurationSec, config)
		if err != nil {
			return 0, err
		}
		return checkDuration(time.Duration(sec) * time.Second)
	}

	ms, err := params.ParseInt(configDurationMs, config)
	if err != nil {
		return 0, err
	}
	return checkDuration(time.Duration(ms) * time.Millisecond)
}

func checkDuration(d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s: duration must be positive", ErrInvalidConfig, StepTypeDelay)
	}
	return d, nil
}
