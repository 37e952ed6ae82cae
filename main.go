package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bicho/cmd"
	"bicho/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "settle":
			if err := handleSettleCommand(); err != nil {
				log.Fatal("Settlement error: ", err)
			}
			return
		case "ledger":
			if err := handleLedgerCommand(); err != nil {
				log.Fatal("Ledger error: ", err)
			}
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: bicho migrate [up|down|status] [args...]")
	}

	_ = godotenv.Load()

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleSettleCommand() error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: bicho settle <date YYYY-MM-DD> <source> <time-slot>")
	}
	return cmd.SettleSlot(context.Background(), os.Args[2], os.Args[3], os.Args[4])
}

func handleLedgerCommand() error {
	if len(os.Args) < 3 || os.Args[2] != "rebuild" {
		return fmt.Errorf("usage: bicho ledger rebuild")
	}
	return cmd.RebuildLedger(context.Background())
}
