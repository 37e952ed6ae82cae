package interfaces

import (
	"context"

	"bicho/domain/entities"
)

// CatalogRepository defines read access to bet types, placements and draw schedules
type CatalogRepository interface {
	// GetBetTypes returns every bet type
	GetBetTypes(ctx context.Context) ([]*entities.BetType, error)

	// GetPlacements returns every placement
	GetPlacements(ctx context.Context) ([]*entities.Placement, error)

	// GetDrawSchedules returns every draw schedule
	GetDrawSchedules(ctx context.Context) ([]*entities.DrawSchedule, error)
}

// DrawResultRepository defines read access to published draw results
type DrawResultRepository interface {
	// GetBySlot returns the result for (date, source, time-slot), or nil if not published
	GetBySlot(ctx context.Context, key entities.SlotKey) (*entities.DrawResult, error)
}

// WagerRepository defines the settlement and cancellation view of wagers
type WagerRepository interface {
	// GetByID retrieves a wager by its ID
	GetByID(ctx context.Context, id int64) (*entities.Wager, error)

	// GetByIDForUpdate retrieves a wager and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Wager, error)

	// GetPendingIDsForSlot returns pending wagers referencing the slot that have no
	// settlement record for it yet
	GetPendingIDsForSlot(ctx context.Context, key entities.SlotKey) ([]int64, error)

	// Resolve moves a pending wager to won or lost. Returns ErrConcurrencyConflict if
	// the wager is no longer pending.
	Resolve(ctx context.Context, wager *entities.Wager) error

	// Cancel moves a pending wager to cancelled. Returns ErrConcurrencyConflict if
	// the wager is no longer pending.
	Cancel(ctx context.Context, wager *entities.Wager) error
}

// SettlementRecordRepository defines access to the settlement audit trail
type SettlementRecordRepository interface {
	// Create inserts a record. Returns ErrSlotAlreadySettled if (wager, slot) already has one.
	Create(ctx context.Context, record *entities.SettlementRecord) error

	// ExistsForSlot reports whether the wager already has a record for the slot
	ExistsForSlot(ctx context.Context, wagerID int64, key entities.SlotKey) (bool, error)

	// GetByWager returns all records of a wager, oldest first
	GetByWager(ctx context.Context, wagerID int64) ([]*entities.SettlementRecord, error)
}

// CancellationRepository defines access to cancellation audit records
type CancellationRepository interface {
	// Create inserts the record. A second record for the same wager fails.
	Create(ctx context.Context, record *entities.CancellationRecord) error

	// GetByWager returns the cancellation of a wager, or nil
	GetByWager(ctx context.Context, wagerID int64) (*entities.CancellationRecord, error)
}

// LedgerRepository defines access to the append-only ledger and its balance projection
type LedgerRepository interface {
	// Append inserts the entry and applies it to the account's projected balance.
	// Sets entry.ID, entry.BalanceAfter and entry.CreatedAt. Returns
	// ErrDuplicateLedgerEntry if the idempotency key was already used.
	Append(ctx context.Context, entry *entities.LedgerEntry) error

	// GetByAccount returns the newest entries of an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error)

	// GetByIdempotencyKey returns the entry recorded under key, or nil
	GetByIdempotencyKey(ctx context.Context, key string) (*entities.LedgerEntry, error)

	// SumByAccount folds the ledger into a balance
	SumByAccount(ctx context.Context, accountID int64) (entities.Cents, error)

	// GetProjectedBalance reads the projection row, or nil if the account has none
	GetProjectedBalance(ctx context.Context, accountID int64) (*entities.BalanceProjection, error)

	// RebuildProjections recomputes every projection from the ledger and returns the account count
	RebuildProjections(ctx context.Context) (int64, error)
}
