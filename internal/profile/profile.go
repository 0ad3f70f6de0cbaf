package profile

import (
	"context"
	"maps"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TookKey — поле результата с временем выполнения action.
const TookKey = "took"

// Action — профилируемое действие шага. Измерители не изменяют map,
// которую вернул action: поля добавляются в копию.
type Action func(ctx context.Context) (map[string]any, error)

// Measure — измеритель, оборачивающий Action.
type Measure interface {
	// Name возвращает имя измерения.
	Name() string

	// Wrap возвращает Action, который вызывает next ровно один раз.
	Wrap(next Action) Action
}

// Chain оборачивает action измерителями по порядку:
// measures[0] — ближайший к action.
func Chain(action Action, measures ...Measure) Action {
	for _, m := range measures {
		action = m.Wrap(action)
	}
	return action
}

// Took добавляет к результату поле "took" — длительность action в миллисекундах.
// Поле "took", возвращённое самим action, заменяется замером.
type Took struct{}

// Name возвращает имя измерения.
func (Took) Name() string {
	return TookKey
}

// Wrap замеряет время вызова next.
func (Took) Wrap(next Action) Action {
	return func(ctx context.Context) (map[string]any, error) {
		start := time.Now()
		result, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil || result == nil {
			return result, err
		}

		out := maps.Clone(result)
		out[TookKey] = Milliseconds(elapsed)
		return out, nil
	}
}

// Observe передаёт длительность action в Prometheus observer.
// Поля результата не меняет. Замер выполняется и при ошибке action.
type Observe struct {
	Observer prometheus.Observer
}

// Name возвращает имя измерения.
func (Observe) Name() string {
	return "observe"
}

// Wrap замеряет время вызова next.
func (o Observe) Wrap(next Action) Action {
	return func(ctx context.Context) (map[string]any, error) {
		start := time.Now()
		defer func() {
			o.Observer.Observe(Milliseconds(time.Since(start)))
		}()
		return next(ctx)
	}
}

// Milliseconds переводит длительность в дробные миллисекунды.
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
