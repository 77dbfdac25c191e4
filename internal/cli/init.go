// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/athena, cmd/athena-worker and cmd/athena-report.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"athena/internal/amqp"
	"athena/internal/config"
	applog "athena/internal/log"
	"athena/internal/storage"
)

// SetupLogger initializes structured logging from LOG_LEVEL and LOG_FORMAT
// and installs it as the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
		JSON:      strings.EqualFold(cfg.LogFormat, "json"),
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on failure.
func LoadAndValidateConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration load failed", applog.FieldErrorType, applog.ErrorTypeConfiguration, applog.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", applog.FieldErrorType, applog.ErrorTypeConfiguration, applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSessionStore opens the sqlite session store, running migrations.
// Returns the store or exits the process on failure.
func InitSessionStore(logger *applog.Logger, cfg *config.Config) *storage.SessionStore {
	store, err := storage.NewSessionStore(cfg.SQLiteDBPath, cfg.SessionTTL)
	if err != nil {
		logger.Error("Failed to initialize session store",
			applog.FieldComponent, applog.ComponentStorage, applog.FieldErrorType, applog.ErrorTypeDatabase,
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	return store
}

// InitAMQP connects to the broker when AMQP_URL is set. A nil client means
// audit publishing is disabled.
func InitAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if !cfg.AuditEnabled() {
		logger.Warn("AMQP_URL not set, category audit events are disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker, audit events are disabled",
			applog.FieldComponent, applog.ComponentAMQP, applog.FieldErrorType, applog.ErrorTypeNetwork, applog.FieldError, err)
		return nil
	}
	logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown, "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
