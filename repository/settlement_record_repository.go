package repository

import (
	"context"
	"errors"
	"fmt"

	"bicho/database"
	"bicho/domain/entities"

	"github.com/jackc/pgx/v5"
)

// SettlementRecordRepository implements the per-slot settlement audit trail
type SettlementRecordRepository struct {
	q queryable
}

// NewSettlementRecordRepository creates a new settlement record repository
func NewSettlementRecordRepository(db *database.DB) *SettlementRecordRepository {
	return &SettlementRecordRepository{q: db.Pool}
}

func newSettlementRecordRepositoryWithTx(tx queryable) *SettlementRecordRepository {
	return &SettlementRecordRepository{q: tx}
}

// Create inserts the record unless (wager, slot) already has one
func (r *SettlementRecordRepository) Create(ctx context.Context, record *entities.SettlementRecord) error {
	if record.Matches == nil {
		record.Matches = []entities.GuessMatch{}
	}

	query := `
		INSERT INTO settlement_records (
			wager_id, draw_date, source, time_slot, draw_result_id, won,
			winning_guesses, prize, declared_multiplier, resolved_multiplier, matches
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (wager_id, draw_date, source, time_slot) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.WagerID,
		record.DrawDate,
		record.Source,
		record.TimeSlot,
		record.DrawResultID,
		record.Won,
		record.WinningGuesses,
		record.Prize,
		record.DeclaredMultiplier,
		record.ResolvedMultiplier,
		record.Matches,
	).Scan(&record.ID, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.ErrSlotAlreadySettled
	}
	if err != nil {
		return fmt.Errorf("failed to create settlement record for wager %d: %w", record.WagerID, err)
	}

	return nil
}

// ExistsForSlot reports whether the wager already has a record for the slot
func (r *SettlementRecordRepository) ExistsForSlot(ctx context.Context, wagerID int64, key entities.SlotKey) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM settlement_records
			WHERE wager_id = $1 AND draw_date = $2 AND source = $3 AND time_slot = $4
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, wagerID, key.Date, key.Source, key.TimeSlot).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check settlement record for wager %d: %w", wagerID, err)
	}
	return exists, nil
}

// GetByWager returns all records of a wager, oldest first
func (r *SettlementRecordRepository) GetByWager(ctx context.Context, wagerID int64) ([]*entities.SettlementRecord, error) {
	query := `
		SELECT id, wager_id, draw_date, source, time_slot, draw_result_id, won,
		       winning_guesses, prize, declared_multiplier, resolved_multiplier,
		       matches, created_at
		FROM settlement_records
		WHERE wager_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlement records for wager %d: %w", wagerID, err)
	}
	defer rows.Close()

	var records []*entities.SettlementRecord
	for rows.Next() {
		var rec entities.SettlementRecord
		err := rows.Scan(
			&rec.ID,
			&rec.WagerID,
			&rec.DrawDate,
			&rec.Source,
			&rec.TimeSlot,
			&rec.DrawResultID,
			&rec.Won,
			&rec.WinningGuesses,
			&rec.Prize,
			&rec.DeclaredMultiplier,
			&rec.ResolvedMultiplier,
			&rec.Matches,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settlement records: %w", err)
	}

	return records, nil
}
