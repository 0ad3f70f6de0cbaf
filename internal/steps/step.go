package steps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Perftool/internal/params"
	"github.com/shaiso/Perftool/internal/profile"
)

// Ошибки шагов.
var (
	// ErrStepNotFound — тип шага не найден в реестре.
	ErrStepNotFound = errors.New("step type not found")

	// ErrInvalidConfig — параметры шага заданы, но недопустимы (например, bulk_size <= 0).
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrInvalidResult — action шага не вернул map с измерениями.
	ErrInvalidResult = errors.New("invalid return by a step")

	// ErrAlreadyExecuted — шаг уже выполнялся (шаги одноразовые).
	ErrAlreadyExecuted = errors.New("step already executed")

	// ErrStepCancelled — выполнение шага отменено.
	ErrStepCancelled = errors.New("step execution cancelled")
)

// Ключи записи результата.
const (
	KeyLabel      = "label"
	KeyCustomName = "custom_name"
)

// Kind — тип шага: собственно логика, которую профилирует Step.
//
// Каждый тип (delay, create_index, ingest, ...) разбирает свои параметры
// в фабрике (см. Factory) и реализует Action.
type Kind interface {
	// Label возвращает фиксированный идентификатор типа.
	Label() string

	// Action выполняет работу шага и возвращает измерения.
	// nil map — ошибка реализации шага (ErrInvalidResult).
	Action(ctx context.Context) (map[string]any, error)
}

// Measurer — опциональный интерфейс Kind: ключи измерений, которые шаг
// возвращает. Используется потребителями результатов, Step его не проверяет.
type Measurer interface {
	Measures() []string
}

// Step — сконфигурированный шаг, готовый к выполнению.
//
// Жизненный цикл: создан → выполняется → завершён/упал.
// Execute вызывается не более одного раза.
type Step struct {
	config     Config
	kind       Kind
	customName string
	measures   []profile.Measure
	logger     *slog.Logger

	mu       sync.Mutex
	executed bool
}

// Option — опция New.
type Option func(*Step)

// WithLogger задаёт логгер шага.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Step) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMeasures добавляет измерители поверх profile.Took.
func WithMeasures(measures ...profile.Measure) Option {
	return func(s *Step) {
		s.measures = append(s.measures, measures...)
	}
}

// New создаёт Step.
//
// custom_name берётся из config, затем из implicit config, иначе
// используется Label типа. Значение custom_name не строкового типа —
// *params.ConfigurationError.
func New(cfg Config, kind Kind, opts ...Option) (*Step, error) {
	customName, err := params.ResolveString(KeyCustomName, cfg.Config(), cfg.ImplicitConfig(), kind.Label())
	if err != nil {
		return nil, err
	}

	s := &Step{
		config:     cfg,
		kind:       kind,
		customName: customName,
		measures:   []profile.Measure{profile.Took{}},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("step", customName, "label", kind.Label())

	return s, nil
}

// Label возвращает идентификатор типа шага.
func (s *Step) Label() string {
	return s.kind.Label()
}

// CustomName возвращает отображаемое имя шага.
func (s *Step) CustomName() string {
	return s.customName
}

// Config возвращает конфигурацию шага.
func (s *Step) Config() Config {
	return s.config
}

// Measures возвращает ключи измерений шага: объявленные типом
// и добавляемые измерителями.
func (s *Step) Measures() []string {
	var keys []string
	if m, ok := s.kind.(Measurer); ok {
		keys = append(keys, m.Measures()...)
	}
	for _, m := range s.measures {
		if _, ok := m.(profile.Took); ok {
			keys = append(keys, profile.TookKey)
		}
	}
	return keys
}

// Execute выполняет action шага под профилированием.
//
// Возвращает одну запись: label, custom_name и все поля результата action
// (включая добавленные измерителями). Ошибка action возвращается без
// изменений, запись при этом не формируется.
func (s *Step) Execute(ctx context.Context) ([]map[string]any, error) {
	s.mu.Lock()
	if s.executed {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExecuted, s.customName)
	}
	s.executed = true
	s.mu.Unlock()

	s.logger.Info("step started")

	action := profile.Chain(s.kind.Action, s.measures...)

	result, err := action(ctx)
	if err != nil {
		s.logger.Warn("step failed", "error", err)
		return nil, err
	}
	if result == nil {
		s.logger.Error("step returned no measures")
		return nil, fmt.Errorf("%w: %s", ErrInvalidResult, s.customName)
	}

	record := make(map[string]any, len(result)+2)
	record[KeyLabel] = s.kind.Label()
	record[KeyCustomName] = s.customName
	for k, v := range result {
		record[k] = v
	}

	s.logger.Info("step completed", "took_ms", result[profile.TookKey])

	return []map[string]any{record}, nil
}
