// Command recurring-worker records the recurring rules due now and exits.
// Run it from cron when the service's own scheduler is not wanted.
package main

import (
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cli"
	"dompet/internal/log"
	"dompet/internal/services"
	"dompet/internal/storage"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentRecurring)
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// Entries created here still reach the sheets mirror through the broker.
	var publisher services.LedgerPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, amqp.Queues{Ledger: cfg.AMQPLedgerQueue})
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	processor := services.NewRecurringProcessor(sqliteRepo, publisher)
	now := time.Now().In(cfg.Location())
	count, err := processor.ProcessDue(ctx, now)
	if err != nil {
		logger.Error("Recurring processing failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Recurring processing complete", "entries_created", count, "at", now.Format(time.RFC3339))
}
