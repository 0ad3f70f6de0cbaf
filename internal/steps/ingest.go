package steps

import (
	"context"
	"fmt"
	"os"

	"github.com/shaiso/Perftool/internal/bulk"
	"github.com/shaiso/Perftool/internal/dataset"
	"github.com/shaiso/Perftool/internal/params"
)

const (
	// StepTypeIngest — тип шага загрузки векторов.
	StepTypeIngest = "ingest"

	// Ключи конфигурации ingest.
	configFieldName   = "field_name"
	configDatasetPath = "dataset_path"
	configBulkSize    = "bulk_size"
	configDocCount    = "doc_count"

	defaultBulkSize = 300
	maxBulkSize     = 10000
)

// IngestStep — загрузка векторов из набора через bulk API.
//
// Набор читается блоками по bulk_size; каждый блок превращается в
// bulk-запрос (bulk.Transform) с _id = порядковый номер вектора в наборе.
//
// Конфигурация:
//
//	{
//	    "index_name": "target_index",
//	    "field_name": "target_field",
//	    "dataset_path": "data/sift-128.fvecs.zst",
//	    "bulk_size": 500,
//	    "doc_count": 100000     // опционально, по умолчанию весь набор
//	}
//
// Outputs:
//
//	{"doc_count": 100000, "bulk_requests": 200, "bulk_took_ms": 35120}
type IngestStep struct {
	engine      Engine
	index       string
	field       string
	datasetPath string
	bulkSize    int
	docCount    int
}

// NewIngestStep возвращает Factory для ingest.
func NewIngestStep(engine Engine) Factory {
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
		path, err := params.ResolveString(configDatasetPath, c, implicit)
		if err != nil {
			return nil, err
		}
		bulkSize, err := params.ResolveInt(configBulkSize, c, implicit, defaultBulkSize)
		if err != nil {
			return nil, err
		}
		docCount, err := params.ResolveInt(configDocCount, c, implicit, 0)
		if err != nil {
			return nil, err
		}

		if bulkSize <= 0 || bulkSize > maxBulkSize {
			return nil, fmt.Errorf("%w: %s: bulk_size must be in [1, %d]", ErrInvalidConfig, StepTypeIngest, maxBulkSize)
		}
		if docCount < 0 {
			return nil, fmt.Errorf("%w: %s: doc_count must not be negative", ErrInvalidConfig, StepTypeIngest)
		}
		if err := checkFile(configDatasetPath, path); err != nil {
			return nil, err
		}

		return &IngestStep{
			engine:      engine,
			index:       index,
			field:       field,
			datasetPath: path,
			bulkSize:    bulkSize,
			docCount:    docCount,
		}, nil
	}
}

// Label возвращает тип шага.
func (s *IngestStep) Label() string {
	return StepTypeIngest
}

// Measures возвращает ключи измерений.
func (s *IngestStep) Measures() []string {
	return []string{"doc_count", "bulk_requests", "bulk_took_ms"}
}

// Action загружает набор в индекс.
func (s *IngestStep) Action(ctx context.Context) (map[string]any, error) {
	rc, err := dataset.Open(s.datasetPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := dataset.NewReader(rc)
	action := bulk.IndexAction(s.index)

	var requests, bulkTook int
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
		}

		limit := s.bulkSize
		if s.docCount > 0 {
			limit = min(limit, s.docCount-reader.Count())
			if limit <= 0 {
				break
			}
		}

		offset := reader.Count()
		partition, err := reader.Fvecs(limit)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.datasetPath, err)
		}
		if len(partition) == 0 {
			break
		}

		batch := bulk.Transform(partition, s.field, action, offset)
		res, err := s.engine.Bulk(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("bulk at offset %d: %w", offset, err)
		}

		requests++
		bulkTook += res.Took
	}

	return map[string]any{
		"doc_count":     reader.Count(),
		"bulk_requests": requests,
		"bulk_took_ms":  bulkTook,
	}, nil
}

// checkFile проверяет, что файл набора существует и не является каталогом.
func checkFile(key, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s: %s is a directory", ErrInvalidConfig, key, path)
	}
	return nil
}
