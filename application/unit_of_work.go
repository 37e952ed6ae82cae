package application

import (
	"context"

	"bicho/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	CatalogRepository() interfaces.CatalogRepository
	DrawResultRepository() interfaces.DrawResultRepository
	WagerRepository() interfaces.WagerRepository
	SettlementRecordRepository() interfaces.SettlementRecordRepository
	CancellationRepository() interfaces.CancellationRepository
	LedgerRepository() interfaces.LedgerRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork with its own transactional publisher
	Create() UnitOfWork
}
