package repository

import (
	"context"
	"fmt"

	"bicho/database"
	"bicho/domain/entities"

	"github.com/jackc/pgx/v5"
)

// CatalogRepository reads bet types, placements and draw schedules
type CatalogRepository struct {
	q queryable
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *database.DB) *CatalogRepository {
	return &CatalogRepository{q: db.Pool}
}

func newCatalogRepositoryWithTx(tx queryable) *CatalogRepository {
	return &CatalogRepository{q: tx}
}

// GetBetTypes returns every bet type
func (r *CatalogRepository) GetBetTypes(ctx context.Context) ([]*entities.BetType, error) {
	query := `
		SELECT code, name, category, unit, digits, picks, base_multiplier, updated_at
		FROM bet_types
		ORDER BY code
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query bet types: %w", err)
	}
	defer rows.Close()

	var betTypes []*entities.BetType
	for rows.Next() {
		var b entities.BetType
		if err := rows.Scan(&b.Code, &b.Name, &b.Category, &b.Unit, &b.Digits, &b.Picks, &b.BaseMultiplier, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bet type: %w", err)
		}
		betTypes = append(betTypes, &b)
	}
	return betTypes, rows.Err()
}

// GetPlacements returns every placement
func (r *CatalogRepository) GetPlacements(ctx context.Context) ([]*entities.Placement, error) {
	query := `
		SELECT code, label, positions, factor, updated_at
		FROM placements
		ORDER BY code
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query placements: %w", err)
	}
	defer rows.Close()

	var placements []*entities.Placement
	for rows.Next() {
		var p entities.Placement
		if err := rows.Scan(&p.Code, &p.Label, &p.Positions, &p.Factor, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		placements = append(placements, &p)
	}
	return placements, rows.Err()
}

// GetDrawSchedules returns every draw schedule
func (r *CatalogRepository) GetDrawSchedules(ctx context.Context) ([]*entities.DrawSchedule, error) {
	query := `
		SELECT source, time_slot, to_char(draw_time, 'HH24:MI')
		FROM draw_schedules
		ORDER BY draw_time, source
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query draw schedules: %w", err)
	}
	defer rows.Close()

	schedules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.DrawSchedule, error) {
		var s entities.DrawSchedule
		err := row.Scan(&s.Source, &s.TimeSlot, &s.DrawTime)
		return &s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan draw schedules: %w", err)
	}
	return schedules, nil
}
