package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Perftool/internal/domain"
)

// ResultRepo — репозиторий записей шагов.
type ResultRepo struct {
	pool *pgxpool.Pool
}

// NewResultRepo создаёт новый ResultRepo.
func NewResultRepo(pool *pgxpool.Pool) *ResultRepo {
	return &ResultRepo{pool: pool}
}

// CreateBatch сохраняет записи одним batch-запросом.
func (r *ResultRepo) CreateBatch(ctx context.Context, results []domain.StepResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO perf_step_results (run_id, iteration, position, label, custom_name, measures, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for i := range results {
		res := &results[i]
		measuresJSON, err := json.Marshal(res.Measures)
		if err != nil {
			return fmt.Errorf("marshal measures of step %d: %w", res.Position, err)
		}
		batch.Queue(query,
			res.RunID,
			res.Iteration,
			res.Position,
			res.Label,
			res.CustomName,
			measuresJSON,
			res.CreatedAt,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert step results: %w", err)
	}
	return nil
}

// ListByRun возвращает записи run в порядке выполнения.
func (r *ResultRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.StepResult, error) {
	query := `
		SELECT run_id, iteration, position, label, custom_name, measures, created_at
		FROM perf_step_results
		WHERE run_id = $1
		ORDER BY iteration, position
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list step results: %w", err)
	}
	defer rows.Close()

	var results []domain.StepResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// scanResult сканирует строку в StepResult.
func scanResult(row pgx.Row) (*domain.StepResult, error) {
	var res domain.StepResult
	var measuresJSON []byte

	err := row.Scan(
		&res.RunID,
		&res.Iteration,
		&res.Position,
		&res.Label,
		&res.CustomName,
		&measuresJSON,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan step result: %w", err)
	}

	measures, err := decodeMeasures(measuresJSON)
	if err != nil {
		return nil, err
	}
	res.Measures = measures

	return &res, nil
}

// decodeMeasures разбирает JSONB измерений.
// Целые числа остаются int, как в записях шагов.
func decodeMeasures(data []byte) (map[string]any, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal measures: %w", err)
	}

	measures := make(map[string]any, len(raw))
	for k, v := range raw {
		if isNumberLiteral(v) {
			n := json.Number(v)
			if i, err := n.Int64(); err == nil {
				measures[k] = int(i)
				continue
			}
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("unmarshal measure %s: %w", k, err)
			}
			measures[k] = f
			continue
		}

		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, fmt.Errorf("unmarshal measure %s: %w", k, err)
		}
		measures[k] = val
	}
	return measures, nil
}

func isNumberLiteral(v json.RawMessage) bool {
	return len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9'))
}
