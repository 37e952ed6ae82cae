package repository

import (
	"context"
	"fmt"

	"bicho/application"
	"bicho/database"
	"bicho/domain/entities"

	"github.com/jackc/pgx/v5"
)

// LoadCatalogSnapshot reads bet types, placements and schedules from one snapshot
func LoadCatalogSnapshot(ctx context.Context, db *database.DB) (*entities.Catalog, error) {
	var catalog *entities.Catalog
	err := db.WithReadTransaction(ctx, func(tx pgx.Tx) error {
		c, err := application.LoadCatalog(ctx, newCatalogRepositoryWithTx(tx))
		if err != nil {
			return err
		}
		catalog = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}
	return catalog, nil
}

// RebuildLedgerProjections recomputes every account projection from the ledger
// in one transaction and returns the number of accounts written
func RebuildLedgerProjections(ctx context.Context, db *database.DB) (int64, error) {
	var accounts int64
	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Block concurrent appends so the fold and the projection agree
		if _, err := tx.Exec(ctx, `LOCK TABLE account_balances IN EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("failed to lock balance projections: %w", err)
		}
		n, err := newLedgerRepositoryWithTx(tx).RebuildProjections(ctx)
		if err != nil {
			return err
		}
		accounts = n
		return nil
	})
	return accounts, err
}
