package entities

import (
	"errors"
	"fmt"
	"time"
)

// EntryType represents the kind of ledger delta
type EntryType string

const (
	EntryTypeSettlementPayout   EntryType = "settlement_payout"
	EntryTypeCancellationRefund EntryType = "cancellation_refund"
)

// IsCredit returns true for entry types that can only add to a balance
func (t EntryType) IsCredit() bool {
	return t == EntryTypeSettlementPayout || t == EntryTypeCancellationRefund
}

// RelatedType represents what the ledger entry's related_id refers to
type RelatedType string

const (
	RelatedTypeSettlementRecord RelatedType = "settlement_record"
	RelatedTypeCancellation     RelatedType = "cancellation"
)

// LedgerEntry is an immutable signed delta on an account
type LedgerEntry struct {
	ID             int64          `db:"id"`
	AccountID      int64          `db:"account_id"`
	Amount         Cents          `db:"amount"`
	EntryType      EntryType      `db:"entry_type"`
	RelatedType    RelatedType    `db:"related_type"`
	RelatedID      int64          `db:"related_id"`
	IdempotencyKey string         `db:"idempotency_key"`
	BalanceAfter   Cents          `db:"balance_after"`
	Metadata       map[string]any `db:"metadata"`
	CreatedAt      time.Time      `db:"created_at"`
}

// BalanceBefore returns the projected balance prior to this entry
func (e *LedgerEntry) BalanceBefore() Cents {
	return e.BalanceAfter - e.Amount
}

// Validate performs basic validation on the entry
func (e *LedgerEntry) Validate() error {
	if e.Amount == 0 {
		return errors.New("ledger amount cannot be zero")
	}
	if e.EntryType.IsCredit() && e.Amount < 0 {
		return fmt.Errorf("%s entries must be credits", e.EntryType)
	}
	if e.IdempotencyKey == "" {
		return errors.New("ledger entry requires an idempotency key")
	}
	if e.RelatedID == 0 || e.RelatedType == "" {
		return errors.New("ledger entry must reference a settlement record or cancellation")
	}
	return nil
}

// PayoutKey is the idempotency key for a wager's single settlement payout
func PayoutKey(wagerID int64) string {
	return fmt.Sprintf("wager:%d:payout", wagerID)
}

// RefundKey is the idempotency key for a wager's single cancellation refund
func RefundKey(wagerID int64) string {
	return fmt.Sprintf("wager:%d:refund", wagerID)
}

// BalanceProjection is the materialized balance of an account and the last ledger
// entry folded into it
type BalanceProjection struct {
	AccountID   int64 `db:"account_id"`
	Balance     Cents `db:"balance"`
	LastEntryID int64 `db:"last_entry_id"`
}
