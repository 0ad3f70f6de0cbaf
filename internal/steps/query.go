package steps

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shaiso/Perftool/internal/dataset"
	"github.com/shaiso/Perftool/internal/params"
)

const (
	// StepTypeQuery — тип шага k-NN запросов.
	StepTypeQuery = "query"

	// Ключи конфигурации query.
	configK             = "k"
	configNeighborsPath = "neighbors_path"
	configQueryCount    = "query_count"

	defaultK = 10
)

// QueryStep — k-NN запросы по набору query-векторов.
//
// Если задан neighbors_path (ivecs с ground truth), считается recall@k:
// доля истинных k ближайших соседей среди найденных, усреднённая по запросам.
//
// Конфигурация:
//
//	{
//	    "index_name": "target_index",
//	    "field_name": "target_field",
//	    "dataset_path": "data/sift-query.fvecs",
//	    "neighbors_path": "data/sift-groundtruth.ivecs",
//	    "k": 10,
//	    "query_count": 1000
//	}
//
// Outputs:
//
//	{"query_count": 1000, "query_took_ms": 4210, "recall@10": 0.97}
type QueryStep struct {
	engine        Engine
	index         string
	field         string
	k             int
	queryCount    int
	queriesPath   string
	neighborsPath string
}

// NewQueryStep возвращает Factory для query.
// Фабрика проверяет только наличие файлов: наборы читаются в Action,
// чтобы сборка плана не держала в памяти векторы всех шагов.
func NewQueryStep(engine Engine) Factory {
	return func(cfg Config) (Kind, error) {
		c, implicit := cfg.Config(), cfg.ImplicitConfig()

		index, err := params.ResolveString(configIndexName, c, implicit)
		if err != nil {
			return nil, err
		}
		field, err := params.ResolveString(configFieldName, c, implicit)
		if err != nil {
			return nil, err
		}
		path, err := params.ParseString(configDatasetPath, c)
		if err != nil {
			return nil, err
		}
		neighborsPath, err := params.ParseString(configNeighborsPath, c, "")
		if err != nil {
			return nil, err
		}
		k, err := params.ResolveInt(configK, c, implicit, defaultK)
		if err != nil {
			return nil, err
		}
		queryCount, err := params.ResolveInt(configQueryCount, c, implicit, 0)
		if err != nil {
			return nil, err
		}

		if k <= 0 {
			return nil, fmt.Errorf("%w: %s: k must be positive", ErrInvalidConfig, StepTypeQuery)
		}
		if err := checkFile(configDatasetPath, path); err != nil {
			return nil, err
		}
		if neighborsPath != "" {
			if err := checkFile(configNeighborsPath, neighborsPath); err != nil {
				return nil, err
			}
		}

		return &QueryStep{
			engine:        engine,
			index:         index,
			field:         field,
			k:             k,
			queryCount:    queryCount,
			queriesPath:   path,
			neighborsPath: neighborsPath,
		}, nil
	}
}

// Label возвращает тип шага.
func (s *QueryStep) Label() string {
	return StepTypeQuery
}

// Measures возвращает ключи измерений.
func (s *QueryStep) Measures() []string {
	keys := []string{"query_count", "query_took_ms"}
	if s.neighborsPath != "" {
		keys = append(keys, s.recallKey())
	}
	return keys
}

// Action читает наборы и выполняет запросы.
func (s *QueryStep) Action(ctx context.Context) (map[string]any, error) {
	queries, neighbors, err := s.load()
	if err != nil {
		return nil, err
	}

	var tookSum int
	var recallSum float64

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
		}

		res, err := s.engine.Search(ctx, s.index, s.field, q, s.k)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}

		tookSum += res.Took
		if neighbors != nil {
			recallSum += Recall(res.IDs, neighbors[i], s.k)
		}
	}

	result := map[string]any{
		"query_count":   len(queries),
		"query_took_ms": tookSum,
	}
	if neighbors != nil && len(queries) > 0 {
		result[s.recallKey()] = recallSum / float64(len(queries))
	}
	return result, nil
}

// load читает query-векторы и, если задан, ground truth.
func (s *QueryStep) load() ([][]float32, [][]int32, error) {
	queries, err := dataset.LoadFvecs(s.queriesPath, s.queryCount)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", configDatasetPath, err)
	}
	if s.neighborsPath == "" {
		return queries, nil, nil
	}

	neighbors, err := dataset.LoadIvecs(s.neighborsPath, len(queries))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", configNeighborsPath, err)
	}
	if len(neighbors) < len(queries) {
		return nil, nil, fmt.Errorf("%w: %s: %d neighbor rows for %d queries",
			ErrInvalidConfig, configNeighborsPath, len(neighbors), len(queries))
	}
	return queries, neighbors, nil
}

func (s *QueryStep) recallKey() string {
	return "recall@" + strconv.Itoa(s.k)
}

// Recall возвращает долю первых k истинных соседей среди первых k найденных id.
func Recall(ids []string, truth []int32, k int) float64 {
	k = min(k, len(truth))
	if k == 0 {
		return 0
	}

	expected := make(map[string]struct{}, k)
	for _, id := range truth[:k] {
		expected[strconv.Itoa(int(id))] = struct{}{}
	}

	hits := 0
	for _, id := range ids[:min(k, len(ids))] {
		if _, ok := expected[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
