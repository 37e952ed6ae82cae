package interfaces

import (
	"context"
	"time"

	"bicho/domain/entities"
	"bicho/domain/events"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding transaction commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes pending events; called after commit
	Flush(ctx context.Context) error

	// Discard drops pending events; called after rollback
	Discard()
}

// BalanceCache is a read cache in front of the balance projection. Every write carries
// the ledger entry id it reflects; a write older than what the cache has seen is dropped.
type BalanceCache interface {
	Get(ctx context.Context, accountID int64) (balance entities.Cents, ok bool, err error)

	// Set caches a balance read at ledger entry lastEntryID
	Set(ctx context.Context, accountID int64, balance entities.Cents, lastEntryID int64) error

	// Invalidate drops the cached balance after ledger entry lastEntryID was appended
	Invalidate(ctx context.Context, accountID int64, lastEntryID int64) error
}

// WagerSettlement is the outcome of applying one slot to one wager
type WagerSettlement struct {
	WagerID   int64
	OwnerID   int64
	Record    *entities.SettlementRecord
	Finalized bool                // all slots resolved and the terminal state written
	State     entities.WagerState // state after this step
	Prize     entities.Cents      // total prize when finalized
	Credited  entities.Cents      // amount credited in this step
}

// RefundResult is the outcome of a successful cancellation
type RefundResult struct {
	WagerID        int64
	OwnerID        int64
	Amount         entities.Cents
	CancellationID int64
	CancelledAt    time.Time
}

// SettlementService applies a published draw to a single wager
type SettlementService interface {
	// SettleWager resolves the slot of result for the wager, writing its settlement record
	// and, once every slot is resolved, its terminal state and payout
	SettleWager(ctx context.Context, wagerID int64, result *entities.DrawResult, catalog *entities.Catalog) (*WagerSettlement, error)
}

// CancellationService guards the pending -> cancelled transition
type CancellationService interface {
	// Cancel refunds and cancels a pending wager still outside the cutoff window
	Cancel(ctx context.Context, wagerID int64, catalog *entities.Catalog) (*RefundResult, error)
}

// BalanceService reads balances and ledger history
type BalanceService interface {
	// GetBalance returns the account balance, served from cache when possible
	GetBalance(ctx context.Context, accountID int64) (entities.Cents, error)

	// GetLedger returns the newest ledger entries of an account
	GetLedger(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error)

	// GetWagerEntries returns the payout and refund entries recorded for a wager
	GetWagerEntries(ctx context.Context, wagerID int64) ([]*entities.LedgerEntry, error)

	// Reconcile compares the projection against a fold of the ledger
	Reconcile(ctx context.Context, accountID int64) (projected, folded entities.Cents, err error)
}
