package application

import (
	"context"
	"fmt"

	"bicho/domain/events"
	"bicho/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LocalHandlerRegistrar registers in-process handlers invoked when an event is published
type LocalHandlerRegistrar interface {
	RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error)
}

// RegisterApplicationSubscriptions wires the in-process event handlers
func RegisterApplicationSubscriptions(registrar LocalHandlerRegistrar, cache interfaces.BalanceCache) {
	if cache == nil {
		return
	}
	registrar.RegisterLocalHandler(events.EventTypeBalanceChange, NewBalanceCacheHandler(cache))
}

// NewBalanceCacheHandler drops the cached balance of an account whose ledger moved so
// the next read refreshes it from the projection
func NewBalanceCacheHandler(cache interfaces.BalanceCache) func(context.Context, events.Event) error {
	return func(ctx context.Context, event events.Event) error {
		change, err := AssertEventType[events.BalanceChangeEvent](event, "BalanceChangeEvent")
		if err != nil {
			return err
		}

		if err := cache.Invalidate(ctx, change.AccountID, change.LedgerEntryID); err != nil {
			return fmt.Errorf("failed to invalidate cached balance for account %d: %w", change.AccountID, err)
		}

		log.WithFields(log.Fields{
			"accountID":  change.AccountID,
			"newBalance": change.NewBalance.String(),
		}).Debug("Invalidated cached balance")
		return nil
	}
}
