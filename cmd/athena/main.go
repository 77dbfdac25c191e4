package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"athena/internal/amqp"
	"athena/internal/athena"
	"athena/internal/cache"
	"athena/internal/cli"
	apphttp "athena/internal/http"
	applog "athena/internal/log"
	"athena/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	sessions := cli.InitSessionStore(logger, cfg)
	defer sessions.Close()

	caches := cache.NewManager()
	caches.Register("sessions", sessions.Cache())

	client := athena.New(cfg.AthenaAPIURL, athena.WithTimeout(cfg.AthenaAPITimeout))

	readyChecks := map[string]apphttp.ReadyCheck{"sessions": sessions.Ping}

	// A nil interface keeps CategoryService from publishing.
	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if amqpClient = cli.InitAMQP(logger, cfg); amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
		readyChecks["amqp"] = amqpClient.Ping
	}

	categories := services.NewCategoryService(client, publisher)
	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Logger:       logger,
		Dashboard:    services.NewDashboardService(client, client),
		Transactions: services.NewTransactionService(client, client),
		Categories:   categories,
		Whitelist:    services.NewWhitelistService(categories),
		Auth:         services.NewAuthService(client, sessions),
		Settings:     services.NewSettingsService(client),
		ReadyChecks:  readyChecks,
		Collectors:   append(cache.Collectors("sessions", sessions.Cache()), caches.Collector()),
	}, apphttp.Options{
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
		RateLimitRPM: cfg.RateLimitRPM,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownGrace, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	})

	caches.StartCleanup(ctx, 10*time.Minute)
	defer caches.Stop()
	go purgeSessions(ctx, logger, sessions.PurgeExpired)

	logger.Info("Starting athena console", applog.FieldOperation, applog.OpStartup, "port", cfg.Port, "api", client.BaseURL(), "audit", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// purgeSessions drops expired session rows once an hour.
func purgeSessions(ctx context.Context, logger *applog.Logger, purge func(context.Context) (int64, error)) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx)
			if err != nil {
				logger.Error("Session purge failed", applog.FieldError, err)
				continue
			}
			if n > 0 {
				logger.Info("Expired sessions purged", "count", n)
			}
		}
	}
}
