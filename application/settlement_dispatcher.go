package application

import (
	"context"

	"bicho/domain/entities"
)

// SettlementDispatcher requests settlement of a slot
type SettlementDispatcher interface {
	Dispatch(ctx context.Context, key entities.SlotKey) error
}

// DirectDispatcher runs the settlement worker in-process
type DirectDispatcher struct {
	worker *SettlementWorker
}

// NewDirectDispatcher creates a dispatcher that settles synchronously
func NewDirectDispatcher(worker *SettlementWorker) *DirectDispatcher {
	return &DirectDispatcher{worker: worker}
}

// Dispatch settles the slot now
func (d *DirectDispatcher) Dispatch(ctx context.Context, key entities.SlotKey) error {
	_, err := d.worker.Settle(ctx, key)
	return err
}
