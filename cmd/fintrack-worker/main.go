package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	backfill := flag.Bool("backfill", false, "export every stored transaction before consuming events")
	flag.Parse()

	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(nil, applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg, applog.ComponentWorker)

	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting fintrack-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	sheetsClient, err := gsheet.NewFromEnv(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}

	exporter := worker.NewExportWorker(sheetsClient, sheetsClient)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", applog.FieldError, err)
		}
		exported, deleted := exporter.Stats()
		logger.Info("Worker shutdown", "exported", exported, "deleted", deleted)
	})

	if *backfill {
		if err := runBackfill(ctx, cfg, exporter, logger); err != nil {
			logger.Error("Backfill failed", applog.FieldError, err)
		}
	}

	if err := amqpClient.Consume(ctx, exporter.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}

// runBackfill exports the transactions held by the configured backend.
func runBackfill(ctx context.Context, cfg *config.Config, exporter *worker.ExportWorker, logger *applog.Logger) error {
	opts, err := backend.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	db, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	}()

	l := ledger.New(db.Store, nil)
	l.Load(ctx)
	logger.Info("Backfilling export sheet", "transactions", l.Len())
	return exporter.Backfill(ctx, l.Transactions())
}
