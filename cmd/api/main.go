// Command api is the report push notification server.
//
// Usage:
//
//	reportpush-api
//	API_PORT=8080 reportpush-api

// @title Report Push API
// @version 1.0.0
// @description Sends Firebase Cloud Messaging push notifications to a supervisor's registered devices when a report is filed. Maintenance and emergency reports get their own Arabic titles, channels and priorities.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Report Push
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/reportpush/internal/api"
	"github.com/albapepper/reportpush/internal/api/handler"
	"github.com/albapepper/reportpush/internal/cache"
	"github.com/albapepper/reportpush/internal/config"
	"github.com/albapepper/reportpush/internal/db"
	"github.com/albapepper/reportpush/internal/listener"
	"github.com/albapepper/reportpush/internal/maintenance"
	"github.com/albapepper/reportpush/internal/notifications"

	_ "github.com/albapepper/reportpush/docs" // swagger docs
)

const version = "1.0.0"

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// The dispatch log is best-effort; a role without CREATE still serves sends.
	if err := pool.EnsureSchema(ctx); err != nil {
		logger.Warn("Dispatch log schema not applied; summaries will not be recorded", "error", err)
	}

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Push gateway. The credential is read on first use so the server still
	// starts (and reports the problem per request) when it is missing.
	gateway := notifications.NewGateway(notifications.GatewayConfigFrom(cfg), logger)
	if !cfg.HasCredential() {
		logger.Warn("No service account configured (FIREBASE_SERVICE_ACCOUNT / FIREBASE_SERVICE_ACCOUNT_FILE); sends will fail")
	}

	store := notifications.NewStore(pool.Pool, appCache, logger)
	service := notifications.NewService(store, store, gateway, store, logger)

	// Start LISTEN/NOTIFY consumer for new reports
	if cfg.ListenerEnabled {
		go listener.Start(ctx, cfg.DatabaseURL, service, logger)
	} else {
		logger.Info("Report listener disabled (LISTENER_ENABLED=false)")
	}

	// Start maintenance tickers (dispatch log cleanup, token prewarm)
	if cfg.MaintenanceEnabled {
		var tokens maintenance.TokenRefresher
		if cfg.HasCredential() && cfg.TokenCacheEnabled {
			tokens = gateway
		}
		go maintenance.Start(ctx, pool, tokens, maintenance.DefaultConfig(), logger)
	}

	// Create router
	router := api.NewRouter(handler.Deps{
		Sender:  service,
		Status:  gateway,
		DB:      pool,
		Cache:   appCache,
		Logger:  logger,
		Version: version,
	}, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Report Push API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
