package events

import "bicho/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWagerWon       EventType = "wager.won"
	EventTypeWagerCancelled EventType = "wager.cancelled"
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeSlotSettled    EventType = "settlement.slot_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// WagerWonEvent is emitted once per wager that settles as won
type WagerWonEvent struct {
	WagerID int64          `json:"wager_id"`
	OwnerID int64          `json:"owner_id"`
	Amount  entities.Cents `json:"amount_cents"`
	Display string         `json:"amount"`
}

func (e WagerWonEvent) Type() EventType {
	return EventTypeWagerWon
}

// WagerCancelledEvent is emitted once per successful cancellation
type WagerCancelledEvent struct {
	WagerID int64          `json:"wager_id"`
	OwnerID int64          `json:"owner_id"`
	Amount  entities.Cents `json:"amount_cents"`
	Display string         `json:"amount"`
}

func (e WagerCancelledEvent) Type() EventType {
	return EventTypeWagerCancelled
}

// BalanceChangeEvent represents a ledger append
type BalanceChangeEvent struct {
	AccountID     int64              `json:"account_id"`
	OldBalance    entities.Cents     `json:"old_balance"`
	NewBalance    entities.Cents     `json:"new_balance"`
	ChangeAmount  entities.Cents     `json:"change_amount"`
	EntryType     entities.EntryType `json:"entry_type"`
	LedgerEntryID int64              `json:"ledger_entry_id"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// SlotSettledEvent carries the summary of one settlement run
type SlotSettledEvent struct {
	DrawDate  string         `json:"draw_date"`
	Source    string         `json:"source"`
	TimeSlot  string         `json:"time_slot"`
	Verified  int            `json:"verified"`
	Won       int            `json:"won"`
	Lost      int            `json:"lost"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	TotalPaid entities.Cents `json:"total_paid_cents"`
}

func (e SlotSettledEvent) Type() EventType {
	return EventTypeSlotSettled
}
