package entities

import "time"

// GuessMatch is one winning guess inside a settlement record
type GuessMatch struct {
	Guess          string   `json:"guess"`
	Positions      []int    `json:"positions"`
	WinningNumbers []string `json:"winning_numbers"`
}

// SettlementRecord is the audit row for one (wager, slot) resolution. Its existence
// is also the idempotency guard for that pair.
type SettlementRecord struct {
	ID                 int64        `db:"id"`
	WagerID            int64        `db:"wager_id"`
	DrawDate           time.Time    `db:"draw_date"`
	Source             string       `db:"source"`
	TimeSlot           string       `db:"time_slot"`
	DrawResultID       int64        `db:"draw_result_id"`
	Won                bool         `db:"won"`
	WinningGuesses     int          `db:"winning_guesses"`
	Prize              Cents        `db:"prize"`
	DeclaredMultiplier int64        `db:"declared_multiplier"`
	ResolvedMultiplier int64        `db:"resolved_multiplier"`
	Matches            []GuessMatch `db:"matches"`
	CreatedAt          time.Time    `db:"created_at"`
}

// Key returns the slot the record resolves
func (r *SettlementRecord) Key() SlotKey {
	return SlotKey{Date: r.DrawDate, Source: r.Source, TimeSlot: r.TimeSlot}
}

// SumPrizes adds up the prize contributions of a wager's records
func SumPrizes(records []*SettlementRecord) Cents {
	var total Cents
	for _, r := range records {
		total += r.Prize
	}
	return total
}

// CancellationRecord is the audit row for a cancellation; at most one per wager
type CancellationRecord struct {
	ID             int64     `db:"id"`
	WagerID        int64     `db:"wager_id"`
	OwnerID        int64     `db:"owner_id"`
	Refund         Cents     `db:"refund"`
	EarliestDrawAt time.Time `db:"earliest_draw_at"`
	CancelledAt    time.Time `db:"cancelled_at"`
}
