package repository

import (
	"context"
	"errors"
	"fmt"

	"bicho/database"
	"bicho/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CancellationRepository implements the cancellation audit trail
type CancellationRepository struct {
	q queryable
}

// NewCancellationRepository creates a new cancellation repository
func NewCancellationRepository(db *database.DB) *CancellationRepository {
	return &CancellationRepository{q: db.Pool}
}

func newCancellationRepositoryWithTx(tx queryable) *CancellationRepository {
	return &CancellationRepository{q: tx}
}

// Create inserts the cancellation record. A second record for the same wager
// violates the unique constraint and is reported as ErrNotPending.
func (r *CancellationRepository) Create(ctx context.Context, record *entities.CancellationRecord) error {
	query := `
		INSERT INTO wager_cancellations (wager_id, owner_id, refund, earliest_draw_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		record.WagerID,
		record.OwnerID,
		record.Refund,
		record.EarliestDrawAt,
		record.CancelledAt,
	).Scan(&record.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return entities.ErrNotPending
		}
		return fmt.Errorf("failed to create cancellation for wager %d: %w", record.WagerID, err)
	}

	return nil
}

// GetByWager returns the cancellation of a wager, or nil
func (r *CancellationRepository) GetByWager(ctx context.Context, wagerID int64) (*entities.CancellationRecord, error) {
	query := `
		SELECT id, wager_id, owner_id, refund, earliest_draw_at, cancelled_at
		FROM wager_cancellations
		WHERE wager_id = $1
	`

	var rec entities.CancellationRecord
	err := r.q.QueryRow(ctx, query, wagerID).Scan(
		&rec.ID,
		&rec.WagerID,
		&rec.OwnerID,
		&rec.Refund,
		&rec.EarliestDrawAt,
		&rec.CancelledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cancellation for wager %d: %w", wagerID, err)
	}

	return &rec, nil
}
