package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/cli"
	applog "spendtrack/internal/log"
	"spendtrack/internal/sheets"
	gsheet "spendtrack/internal/sheets/google"
	"spendtrack/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger = logger.WithComponent(applog.ComponentWorker)
	logger.Info("Starting spendtrack-worker", applog.FieldOperation, applog.OpStartup)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	res := cli.InitBackend(context.Background(), logger, cfg)
	if res.Publisher == nil {
		logger.Error("AMQP broker unavailable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		_ = res.Cleanup()
		os.Exit(1)
	}

	// Google Sheets export is optional
	var (
		exporter sheets.TransactionExporter
		remover  sheets.TransactionRemover
	)
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			SheetName:          cfg.GoogleSheetName,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			_ = res.Cleanup()
			os.Exit(1)
		}
		exporter, remover = client, client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	w := worker.NewEventWorker(res.Service, exporter, remover)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Surface alerts left over from before the worker started.
		now := time.Now()
		if _, err := w.CheckBudgets(gctx, now.Year(), int(now.Month())); err != nil {
			logger.Error("Startup budget check failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		err := res.Publisher.Consume(gctx, w.Handle)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
		_ = res.Cleanup()
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
