package testutil

import (
	"context"
	"testing"
	"time"

	"bicho/database"
	"bicho/domain/entities"

	"github.com/stretchr/testify/require"
)

// PlayDate is the default play date of test wagers
var PlayDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

// CreateTestWager creates a pending milhar wager on the first prize with sensible defaults
func CreateTestWager(ownerID int64, guesses ...string) *entities.Wager {
	if len(guesses) == 0 {
		guesses = []string{"1234"}
	}
	w := &entities.Wager{
		OwnerID:            ownerID,
		BetTypeCode:        "milhar",
		PlacementCode:      "1",
		Guesses:            guesses,
		TimeSlots:          []string{"PT"},
		Sources:            []string{"RJ"},
		PlayDate:           PlayDate,
		UnitStake:          200,
		DeclaredMultiplier: 4000,
		State:              entities.WagerStatePending,
	}
	w.TotalStake = entities.CalculateTotalStake(w.UnitStake, len(w.Guesses), len(w.Sources))
	return w
}

// InsertWager writes a wager row. Wager placement is owned upstream, so the
// repositories have no insert path.
func InsertWager(t *testing.T, db *database.DB, w *entities.Wager) *entities.Wager {
	t.Helper()

	w.TotalStake = entities.CalculateTotalStake(w.UnitStake, len(w.Guesses), len(w.Sources))
	if w.State == "" {
		w.State = entities.WagerStatePending
	}

	err := db.QueryRow(context.Background(), `
		INSERT INTO wagers (
			owner_id, bet_type_code, placement_code, guesses, time_slots, sources,
			play_date, unit_stake, declared_multiplier, total_stake, state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`,
		w.OwnerID, w.BetTypeCode, w.PlacementCode, w.Guesses, w.TimeSlots, w.Sources,
		w.PlayDate, w.UnitStake, w.DeclaredMultiplier, w.TotalStake, w.State,
	).Scan(&w.ID, &w.CreatedAt)
	require.NoError(t, err)

	return w
}

// InsertDrawResult publishes a draw result for the slot
func InsertDrawResult(t *testing.T, db *database.DB, key entities.SlotKey, numbers ...string) *entities.DrawResult {
	t.Helper()

	r := &entities.DrawResult{
		DrawDate: key.Date,
		Source:   key.Source,
		TimeSlot: key.TimeSlot,
		Numbers:  numbers,
	}
	err := db.QueryRow(context.Background(), `
		INSERT INTO draw_results (draw_date, source, time_slot, numbers)
		VALUES ($1, $2, $3, $4)
		RETURNING id, published_at
	`, r.DrawDate, r.Source, r.TimeSlot, r.Numbers).Scan(&r.ID, &r.PublishedAt)
	require.NoError(t, err)

	return r
}

// SlotKey builds a slot key on PlayDate
func SlotKey(source, timeSlot string) entities.SlotKey {
	return entities.SlotKey{Date: PlayDate, Source: source, TimeSlot: timeSlot}
}
