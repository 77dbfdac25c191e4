package main

import (
	"context"
	"errors"
	"os"
	"time"

	"athena/internal/cli"
	"athena/internal/config"
	applog "athena/internal/log"
	"athena/internal/sheets"
	gsheet "athena/internal/sheets/google"
	"athena/internal/sheets/memory"
	"athena/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentWorker)

	logger.Info("Starting athena-worker", applog.FieldOperation, applog.OpStartup)

	amqpClient := cli.InitAMQP(logger, cfg)
	if amqpClient == nil {
		logger.Error("The audit worker needs a reachable AMQP_URL")
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownGrace, nil)

	writer := auditWriter(ctx, logger, cfg)
	audit := worker.NewAuditWorker(writer)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logger.Info("Audit worker heartbeat", "processed", audit.Processed())
			}
		}
	}()

	if err := amqpClient.ConsumeCategoryEvents(ctx, audit.HandleCategoryEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		amqpClient.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", "processed", audit.Processed())
}

// auditWriter prefers the Google audit sheet and falls back to an
// in-process log when no spreadsheet is configured or it cannot be reached.
func auditWriter(ctx context.Context, logger *applog.Logger, cfg *config.Config) sheets.AuditWriter {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("GOOGLE_SPREADSHEET_ID not set, audit records stay in memory")
		return memory.New()
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleAuditSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client, audit records stay in memory", applog.FieldError, err)
		return memory.New()
	}

	headerCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.EnsureHeader(headerCtx); err != nil {
		logger.Warn("Could not verify audit sheet header", applog.FieldError, err)
	}

	logger.Info("Google Sheets audit log enabled",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleAuditSheetName)
	return client
}
