package steps

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Perftool/internal/client"
)

// Factory создаёт Kind из конфигурации шага.
// Фабрика разбирает параметры типа и возвращает ошибку при неверной конфигурации.
type Factory func(cfg Config) (Kind, error)

// Engine — операции поискового движка, которые используют шаги.
// Реализация по умолчанию — *client.Client.
type Engine interface {
	CreateIndex(ctx context.Context, index string, body map[string]any) (bool, error)
	DeleteIndex(ctx context.Context, index string) (bool, error)
	Refresh(ctx context.Context, index string) (int, error)
	Bulk(ctx context.Context, batch []map[string]any) (*client.BulkResult, error)
	Search(ctx context.Context, index, field string, vector []float32, k int) (*client.SearchResult, error)
}

// Registry — реестр типов шагов.
//
// Сопоставляет имя шага из плана с фабрикой Kind.
// Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными шагами.
func DefaultRegistry(engine Engine) *Registry {
	r := NewRegistry()

	r.Register(StepTypeBase, NewBaseStep)
	r.Register(StepTypeDelay, NewDelayStep)
	r.Register(StepTypeCreateIndex, NewCreateIndexStep(engine))
	r.Register(StepTypeDeleteIndex, NewDeleteIndexStep(engine))
	r.Register(StepTypeRefreshIndex, NewRefreshIndexStep(engine))
	r.Register(StepTypeIngest, NewIngestStep(engine))
	r.Register(StepTypeQuery, NewQueryStep(engine))

	return r
}

// Register регистрирует фабрику под именем name.
// Если фабрика с таким именем уже существует, она будет перезаписана.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get возвращает фабрику по имени.
// Возвращает ErrStepNotFound, если имя не зарегистрировано.
func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, name)
	}

	return factory, nil
}

// Build создаёт Step по конфигурации: выбирает фабрику по StepName,
// строит Kind и оборачивает его в Step.
func (r *Registry) Build(cfg Config, opts ...Option) (*Step, error) {
	factory, err := r.Get(cfg.StepName())
	if err != nil {
		return nil, err
	}

	kind, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure %s: %w", cfg.StepName(), err)
	}

	return New(cfg, kind, opts...)
}

// Has проверяет, зарегистрирован ли шаг.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// Names возвращает отсортированный список зарегистрированных имён.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных шагов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Unregister удаляет шаг из реестра.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}
