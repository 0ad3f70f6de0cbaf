package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shaiso/Perftool/internal/params"
)

const (
	// Типы шагов управления индексом.
	StepTypeCreateIndex  = "create_index"
	StepTypeDeleteIndex  = "delete_index"
	StepTypeRefreshIndex = "refresh_index"

	// Ключи конфигурации.
	configIndexName     = "index_name"
	configIndexSpec     = "index_spec"
	configIndexSpecPath = "index_spec_path"
)

// CreateIndexStep — создание индекса.
//
// Конфигурация (index_name может приходить из implicit_config плана):
//
//	{
//	    "index_name": "target_index",
//	    "index_spec": {"settings": {...}, "mappings": {...}},
//	    // или
//	    "index_spec_path": "indices/hnsw.json"
//	}
//
// Outputs:
//
//	{"acknowledged": true}
type CreateIndexStep struct {
	engine Engine
	index  string
	spec   map[string]any
}

// NewCreateIndexStep возвращает Factory для create_index.
func NewCreateIndexStep(engine Engine) Factory {
	return func(cfg Config) (Kind, error) {
		index, err := params.ResolveString(configIndexName, cfg.Config(), cfg.ImplicitConfig())
		if err != nil {
			return nil, err
		}

		spec, err := params.ParseMap(configIndexSpec, cfg.Config(), nil)
		if err != nil {
			return nil, err
		}

		path, err := params.ResolveString(configIndexSpecPath, cfg.Config(), cfg.ImplicitConfig(), "")
		if err != nil {
			return nil, err
		}
		if spec == nil && path != "" {
			if spec, err = readIndexSpec(path); err != nil {
				return nil, err
			}
		}

		return &CreateIndexStep{engine: engine, index: index, spec: spec}, nil
	}
}

// Label возвращает тип шага.
func (s *CreateIndexStep) Label() string {
	return StepTypeCreateIndex
}

// Action создаёт индекс.
func (s *CreateIndexStep) Action(ctx context.Context) (map[string]any, error) {
	ack, err := s.engine.CreateIndex(ctx, s.index, s.spec)
	if err != nil {
		return nil, err
	}
	return map[string]any{"acknowledged": ack}, nil
}

// DeleteIndexStep — удаление индекса. Отсутствующий индекс не ошибка.
//
// Outputs:
//
//	{"deleted": true}
type DeleteIndexStep struct {
	engine Engine
	index  string
}

// NewDeleteIndexStep возвращает Factory для delete_index.
func NewDeleteIndexStep(engine Engine) Factory {
	return func(cfg Config) (Kind, error) {
		index, err := params.ResolveString(configIndexName, cfg.Config(), cfg.ImplicitConfig())
		if err != nil {
			return nil, err
		}
		return &DeleteIndexStep{engine: engine, index: index}, nil
	}
}

// Label возвращает тип шага.
func (s *DeleteIndexStep) Label() string {
	return StepTypeDeleteIndex
}

// Action удаляет индекс.
func (s *DeleteIndexStep) Action(ctx context.Context) (map[string]any, error) {
	deleted, err := s.engine.DeleteIndex(ctx, s.index)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": deleted}, nil
}

// RefreshIndexStep — refresh индекса после загрузки.
//
// Outputs:
//
//	{"shards_refreshed": 1}
type RefreshIndexStep struct {
	engine Engine
	index  string
}

// NewRefreshIndexStep возвращает Factory для refresh_index.
func NewRefreshIndexStep(engine Engine) Factory {
	return func(cfg Config) (Kind, error) {
		index, err := params.ResolveString(configIndexName, cfg.Config(), cfg.ImplicitConfig())
		if err != nil {
			return nil, err
		}
		return &RefreshIndexStep{engine: engine, index: index}, nil
	}
}

// Label возвращает тип шага.
func (s *RefreshIndexStep) Label() string {
	return StepTypeRefreshIndex
}

// Action выполняет refresh.
func (s *RefreshIndexStep) Action(ctx context.Context) (map[string]any, error) {
	shards, err := s.engine.Refresh(ctx, s.index)
	if err != nil {
		return nil, err
	}
	return map[string]any{"shards_refreshed": shards}, nil
}

// readIndexSpec читает тело создания индекса из JSON-файла.
func readIndexSpec(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, configIndexSpecPath, err)
	}

	var spec map[string]any
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: %s: parse %s: %v", ErrInvalidConfig, configIndexSpecPath, path, err)
	}
	return spec, nil
}
