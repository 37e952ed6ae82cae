package repository

import (
	"context"
	"errors"
	"fmt"

	"bicho/database"
	"bicho/domain/entities"

	"github.com/jackc/pgx/v5"
)

// DrawResultRepository implements read access to published draws
type DrawResultRepository struct {
	q queryable
}

// NewDrawResultRepository creates a new draw result repository
func NewDrawResultRepository(db *database.DB) *DrawResultRepository {
	return &DrawResultRepository{q: db.Pool}
}

func newDrawResultRepositoryWithTx(tx queryable) *DrawResultRepository {
	return &DrawResultRepository{q: tx}
}

// GetBySlot returns the result for the slot, or nil if it has not been published
func (r *DrawResultRepository) GetBySlot(ctx context.Context, key entities.SlotKey) (*entities.DrawResult, error) {
	query := `
		SELECT id, draw_date, source, time_slot, numbers, published_at
		FROM draw_results
		WHERE draw_date = $1 AND source = $2 AND time_slot = $3
	`

	var result entities.DrawResult
	err := r.q.QueryRow(ctx, query, key.Date, key.Source, key.TimeSlot).Scan(
		&result.ID,
		&result.DrawDate,
		&result.Source,
		&result.TimeSlot,
		&result.Numbers,
		&result.PublishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw result for %s: %w", key, err)
	}

	return &result, nil
}
