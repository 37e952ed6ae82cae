package repository

import (
	"context"
	"errors"
	"fmt"

	"bicho/database"
	"bicho/domain/entities"

	"github.com/jackc/pgx/v5"
)

const wagerColumns = `
	id, owner_id, bet_type_code, placement_code, guesses, time_slots, sources,
	play_date, unit_stake, declared_multiplier, total_stake, state, prize,
	created_at, resolved_at
`

// WagerRepository implements the settlement and cancellation view of wagers
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

func scanWager(row pgx.Row) (*entities.Wager, error) {
	var w entities.Wager
	err := row.Scan(
		&w.ID,
		&w.OwnerID,
		&w.BetTypeCode,
		&w.PlacementCode,
		&w.Guesses,
		&w.TimeSlots,
		&w.Sources,
		&w.PlayDate,
		&w.UnitStake,
		&w.DeclaredMultiplier,
		&w.TotalStake,
		&w.State,
		&w.Prize,
		&w.CreatedAt,
		&w.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetByID retrieves a wager by its ID
func (r *WagerRepository) GetByID(ctx context.Context, id int64) (*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d: %w", id, err)
	}
	return wager, nil
}

// GetByIDForUpdate retrieves a wager and holds its row lock until the transaction ends
func (r *WagerRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1 FOR UPDATE`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %d for update: %w", id, err)
	}
	return wager, nil
}

// GetPendingIDsForSlot returns pending wagers that reference the slot and have no
// settlement record for it yet
func (r *WagerRepository) GetPendingIDsForSlot(ctx context.Context, key entities.SlotKey) ([]int64, error) {
	query := `
		SELECT w.id
		FROM wagers w
		WHERE w.state = 'pending'
		  AND w.play_date = $1
		  AND $2 = ANY(w.sources)
		  AND $3 = ANY(w.time_slots)
		  AND NOT EXISTS (
		      SELECT 1 FROM settlement_records s
		      WHERE s.wager_id = w.id
		        AND s.draw_date = $1
		        AND s.source = $2
		        AND s.time_slot = $3
		  )
		ORDER BY w.id
	`

	rows, err := r.q.Query(ctx, query, key.Date, key.Source, key.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending wagers for %s: %w", key, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending wager ids: %w", err)
	}
	return ids, nil
}

// Resolve moves a pending wager to won or lost
func (r *WagerRepository) Resolve(ctx context.Context, wager *entities.Wager) error {
	if wager.State != entities.WagerStateWon && wager.State != entities.WagerStateLost {
		return fmt.Errorf("cannot resolve wager %d to %s", wager.ID, wager.State)
	}

	query := `
		UPDATE wagers
		SET state = $2, prize = $3, resolved_at = $4
		WHERE id = $1 AND state = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, wager.ID, wager.State, wager.Prize, wager.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to resolve wager %d: %w", wager.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrConcurrencyConflict
	}
	return nil
}

// Cancel moves a pending wager to cancelled
func (r *WagerRepository) Cancel(ctx context.Context, wager *entities.Wager) error {
	query := `
		UPDATE wagers
		SET state = 'cancelled', resolved_at = $2
		WHERE id = $1 AND state = 'pending'
	`

	tag, err := r.q.Exec(ctx, query, wager.ID, wager.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to cancel wager %d: %w", wager.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrConcurrencyConflict
	}
	return nil
}
