package main

import (
	"context"
	"errors"
	"os"
	"time"

	"dompet/internal/amqp"
	"dompet/internal/cache"
	"dompet/internal/cli"
	"dompet/internal/log"
	"dompet/internal/sheets"
	gsheet "dompet/internal/sheets/google"
	mem "dompet/internal/sheets/memory"
	"dompet/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sheets mirror worker")
		os.Exit(1)
	}

	var writer sheets.LedgerWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Mirroring ledger to Google Sheets",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		writer = mem.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set - ledger events are kept in memory only")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, amqp.Queues{Ledger: cfg.AMQPLedgerQueue})
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	syncWorker := worker.NewSyncWorker(writer)
	caches := cache.NewManager()
	caches.Register(syncWorker.Recent())
	caches.StartCleanup(10 * time.Minute)
	defer caches.Stop()

	logger.Info("Starting dompet-worker", "queue", cfg.AMQPLedgerQueue)
	err = client.ConsumeLedgerRecorded(ctx, syncWorker.HandleLedgerRecorded)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("dompet-worker shutdown complete")
}
