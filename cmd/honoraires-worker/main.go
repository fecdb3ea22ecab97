package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"honoraires/internal/amqp"
	"honoraires/internal/cli"
	"honoraires/internal/log"
	"honoraires/internal/sheets"
	gsheet "honoraires/internal/sheets/google"
	sheetsmem "honoraires/internal/sheets/memory"
	"honoraires/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting honoraires-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	// The worker only reads the ledger; it publishes nothing.
	ledger, err := cli.OpenLedger(context.Background(), logger, cfg, false)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var sheet sheets.BalanceSheet
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sheet = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sheet = sheetsmem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, balances kept in memory")
	}

	exporter := worker.NewExportWorker(ledger.Service, ledger.Service.Clients(), sheet, cfg.ExportConcurrency)

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	var reconciler *worker.Reconciler
	if cfg.ExportReconcileEvery > 0 {
		reconciler = worker.NewReconciler(exporter, cfg.ExportReconcileEvery)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if reconciler != nil {
			if err := reconciler.Stop(shutdownCtx); err != nil {
				logger.Error("Failed to stop reconciler", "error", err)
			}
		}
		if consumer != nil {
			if err := consumer.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", "error", err)
		}
	})

	if year := cfg.ExportOnStartupYear; year > 0 {
		logger.Info("Performing startup export", "year", year)
		if _, err := exporter.ExportYear(ctx, year); err != nil {
			// Not fatal: the reconciler and later events catch up.
			logger.Error("Startup export failed", "year", year, "error", err)
		}
	}

	if reconciler != nil {
		if err := reconciler.Start(ctx); err != nil {
			logger.Error("Failed to start reconciler", "error", err)
			os.Exit(1)
		}
	}

	if consumer != nil {
		go consume(ctx, logger, consumer, exporter)
	}

	logger.Info("Worker started",
		"amqp", consumer != nil,
		"reconcile_interval", cfg.ExportReconcileEvery,
		"export_concurrency", cfg.ExportConcurrency)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

func consume(ctx context.Context, logger *slog.Logger, consumer *amqp.Client, exporter *worker.ExportWorker) {
	err := consumer.ConsumeLedgerEvents(ctx, exporter.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
	}
}
