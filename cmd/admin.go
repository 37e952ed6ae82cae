package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"bicho/application"
	"bicho/config"
	"bicho/database"
	"bicho/domain/entities"
	"bicho/infrastructure"
	"bicho/repository"

	log "github.com/sirupsen/logrus"
)

// SettleSlot runs one settlement for (date, source, time slot) and prints the summary.
// It publishes wager.won events and invalidates cached balances like the service does,
// so it refuses to run without NATS.
func SettleSlot(ctx context.Context, date, source, timeSlot string) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	key, err := entities.NewSlotKey(date, source, timeSlot)
	if err != nil {
		return err
	}

	bus, err := connectEventBus(ctx, cfg, nil, true)
	if err != nil {
		return err
	}
	defer bus.Close()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	balanceCache, closeCache, err := connectBalanceCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, bus.publisher)
	application.RegisterApplicationSubscriptions(uowFactory, balanceCache)
	worker := application.NewSettlementWorker(uowFactory, bus.publisher, nil, cfg.SettlementWorkers)

	summary, err := worker.Settle(ctx, key)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// RebuildLedger recomputes every balance projection from the ledger
func RebuildLedger(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	accounts, err := repository.RebuildLedgerProjections(ctx, db)
	if err != nil {
		return err
	}

	log.WithField("accounts", accounts).Info("Rebuilt balance projections")
	return nil
}
