package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Perftool/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `id, plan_name, status, iterations, started_at, finished_at, error, summary, created_at`

// Create создаёт новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO perf_runs (id, plan_name, status, iterations, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.PlanName,
		run.Status,
		run.Iterations,
		run.StartedAt,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: run %s", ErrAlreadyExists, run.ID)
	}
	return nil
}

// Finish сохраняет итог run: статус, время завершения, ошибку и сводку.
// Завершить можно только run в статусе RUNNING.
func (r *RunRepo) Finish(ctx context.Context, run *domain.Run) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	query := `
		UPDATE perf_runs
		SET status = $2, finished_at = $3, error = $4, summary = $5
		WHERE id = $1 AND status = 'RUNNING'
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.FinishedAt,
		nullString(run.Error),
		summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if result.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, run.ID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: run %s is %s", ErrInvalidState, run.ID, existing.Status)
	}
	return nil
}

// GetByID возвращает run по ID (без записей шагов).
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM perf_runs WHERE id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// List возвращает последние runs, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT ` + runColumns + `
		FROM perf_runs
		WHERE ($1::text IS NULL OR plan_name = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.PlanName),
		nullString(string(filter.Status)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// --- Helpers ---

const defaultListLimit = 50

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	PlanName string
	Status   domain.RunStatus
	Limit    int
}

// scanRun сканирует одну строку в Run.
// pgx.ErrNoRows возвращается без обёртки.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var summaryJSON []byte
	var runError *string

	err := row.Scan(
		&run.ID,
		&run.PlanName,
		&run.Status,
		&run.Iterations,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
		&summaryJSON,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if summaryJSON != nil {
		if err := json.Unmarshal(summaryJSON, &run.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
	}
	if runError != nil {
		run.Error = *runError
	}

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
