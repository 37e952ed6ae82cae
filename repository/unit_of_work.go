package repository

import (
	"context"
	"errors"
	"fmt"

	"bicho/application"
	"bicho/database"
	"bicho/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	catalogRepo            interfaces.CatalogRepository
	drawResultRepo         interfaces.DrawResultRepository
	wagerRepo              interfaces.WagerRepository
	recordRepo             interfaces.SettlementRecordRepository
	cancellationRepo       interfaces.CancellationRepository
	ledgerRepo             interfaces.LedgerRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

type unitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.catalogRepo = newCatalogRepositoryWithTx(tx)
	u.drawResultRepo = newDrawResultRepositoryWithTx(tx)
	u.wagerRepo = newWagerRepositoryWithTx(tx)
	u.recordRepo = newSettlementRecordRepositoryWithTx(tx)
	u.cancellationRepo = newCancellationRepositoryWithTx(tx)
	u.ledgerRepo = newLedgerRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// The commit stands even if some events fail to leave
	if u.transactionalPublisher != nil {
		if err := u.transactionalPublisher.Flush(u.ctx); err != nil {
			log.WithError(err).Warn("Some events were not published after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// CatalogRepository returns the catalog repository for this unit of work
func (u *unitOfWork) CatalogRepository() interfaces.CatalogRepository {
	if u.catalogRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.catalogRepo
}

// DrawResultRepository returns the draw result repository for this unit of work
func (u *unitOfWork) DrawResultRepository() interfaces.DrawResultRepository {
	if u.drawResultRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.drawResultRepo
}

// WagerRepository returns the wager repository for this unit of work
func (u *unitOfWork) WagerRepository() interfaces.WagerRepository {
	if u.wagerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerRepo
}

// SettlementRecordRepository returns the settlement record repository for this unit of work
func (u *unitOfWork) SettlementRecordRepository() interfaces.SettlementRecordRepository {
	if u.recordRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.recordRepo
}

// CancellationRepository returns the cancellation repository for this unit of work
func (u *unitOfWork) CancellationRepository() interfaces.CancellationRepository {
	if u.cancellationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.cancellationRepo
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() interfaces.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("transactional publisher not configured")
	}
	return u.transactionalPublisher
}
