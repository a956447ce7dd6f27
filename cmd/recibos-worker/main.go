package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"recibos/internal/amqp"
	"recibos/internal/config"
	applog "recibos/internal/log"
	"recibos/internal/services"
	"recibos/internal/sheets"
	gsheet "recibos/internal/sheets/google"
	mem "recibos/internal/sheets/memory"
	"recibos/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting recibos-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Without a spreadsheet id the worker still runs, writing to an
	// in-memory ledger. Useful for local development.
	var ledger sheets.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.LedgerSheetName)
	} else {
		ledger = mem.New()
		logger.Info("Google Sheets disabled, using in-memory ledger")
	}

	syncer := services.NewLedgerSyncer(repo, ledger, cfg.SyncBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, relying on periodic sync only", "error", err)
	} else {
		defer events.Close()
		go func() {
			if err := events.Consume(ctx, syncer.HandleEvent); err != nil && err != context.Canceled {
				logger.Error("Event consumption failed", "error", err)
				cancel()
			}
		}()
	}

	go syncer.Run(ctx, cfg.SyncInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
