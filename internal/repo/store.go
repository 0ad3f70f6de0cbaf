package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Perftool/internal/domain"
)

// Store сохраняет run и его записи шагов.
type Store struct {
	Runs    *RunRepo
	Results *ResultRepo
}

// NewStore создаёт Store поверх пула.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Runs:    NewRunRepo(pool),
		Results: NewResultRepo(pool),
	}
}

// CreateRun сохраняет только что начатый run.
func (s *Store) CreateRun(ctx context.Context, run *domain.Run) error {
	return s.Runs.Create(ctx, run)
}

// FinishRun сохраняет записи шагов и итог run.
func (s *Store) FinishRun(ctx context.Context, run *domain.Run) error {
	if err := s.Results.CreateBatch(ctx, run.Results); err != nil {
		return err
	}
	return s.Runs.Finish(ctx, run)
}
