package utils

import (
	"context"
	"fmt"

	"bicho/domain/entities"
	"bicho/domain/events"
	"bicho/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerEntry appends a ledger entry and emits a balance change event.
// This is the single entry point for all balance changes in the system.
func RecordLedgerEntry(ctx context.Context, ledgerRepo interfaces.LedgerRepository, eventPublisher interfaces.EventPublisher, entry *entities.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid ledger entry: %w", err)
	}

	if err := ledgerRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	event := events.BalanceChangeEvent{
		AccountID:     entry.AccountID,
		OldBalance:    entry.BalanceBefore(),
		NewBalance:    entry.BalanceAfter,
		ChangeAmount:  entry.Amount,
		EntryType:     entry.EntryType,
		LedgerEntryID: entry.ID,
	}
	log.WithFields(log.Fields{
		"accountID":    event.AccountID,
		"oldBalance":   event.OldBalance.String(),
		"newBalance":   event.NewBalance.String(),
		"entryType":    event.EntryType,
		"changeAmount": event.ChangeAmount.String(),
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	return nil
}
