package services

import (
	"context"
	"fmt"

	"bicho/domain/entities"
	"bicho/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const maxLedgerPage = 500

type balanceService struct {
	ledgerRepo interfaces.LedgerRepository
	cache      interfaces.BalanceCache
}

// NewBalanceService creates a balance service. cache may be nil.
func NewBalanceService(ledgerRepo interfaces.LedgerRepository, cache interfaces.BalanceCache) interfaces.BalanceService {
	return &balanceService{ledgerRepo: ledgerRepo, cache: cache}
}

// GetBalance reads through the cache, then the projection, then folds the ledger
func (s *balanceService) GetBalance(ctx context.Context, accountID int64) (entities.Cents, error) {
	if s.cache != nil {
		balance, ok, err := s.cache.Get(ctx, accountID)
		if err != nil {
			log.WithError(err).WithField("accountID", accountID).Warn("Balance cache read failed")
		} else if ok {
			return balance, nil
		}
	}

	projection, err := s.ledgerRepo.GetProjectedBalance(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance projection: %w", err)
	}

	var balance entities.Cents
	var lastEntryID int64
	if projection != nil {
		balance, lastEntryID = projection.Balance, projection.LastEntryID
	} else {
		balance, err = s.ledgerRepo.SumByAccount(ctx, accountID)
		if err != nil {
			return 0, fmt.Errorf("failed to fold ledger: %w", err)
		}
	}

	if s.cache != nil {
		// An invalidation for a newer entry makes the cache drop this write
		if err := s.cache.Set(ctx, accountID, balance, lastEntryID); err != nil {
			log.WithError(err).WithField("accountID", accountID).Warn("Balance cache write failed")
		}
	}
	return balance, nil
}

// GetLedger returns the newest ledger entries of an account
func (s *balanceService) GetLedger(ctx context.Context, accountID int64, limit int) ([]*entities.LedgerEntry, error) {
	if limit <= 0 || limit > maxLedgerPage {
		limit = maxLedgerPage
	}
	entries, err := s.ledgerRepo.GetByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	return entries, nil
}

// GetWagerEntries looks up the wager's entries by their idempotency keys. A wager has
// at most one payout and one refund, and never both.
func (s *balanceService) GetWagerEntries(ctx context.Context, wagerID int64) ([]*entities.LedgerEntry, error) {
	var entries []*entities.LedgerEntry
	for _, key := range []string{entities.PayoutKey(wagerID), entities.RefundKey(wagerID)} {
		entry, err := s.ledgerRepo.GetByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get ledger entry %s: %w", key, err)
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Reconcile compares the projected balance with a fold of the ledger
func (s *balanceService) Reconcile(ctx context.Context, accountID int64) (entities.Cents, entities.Cents, error) {
	projection, err := s.ledgerRepo.GetProjectedBalance(ctx, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read balance projection: %w", err)
	}
	var projected entities.Cents
	if projection != nil {
		projected = projection.Balance
	}
	folded, err := s.ledgerRepo.SumByAccount(ctx, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fold ledger: %w", err)
	}
	if projected != folded {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"projected": projected.String(),
			"folded":    folded.String(),
		}).Warn("Balance projection drifted from ledger")
	}
	return projected, folded, nil
}
