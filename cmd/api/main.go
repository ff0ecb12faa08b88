package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/digital-wallet-ledger/internal/api_gateway"
	"github.com/digital-wallet-ledger/internal/auth"
	"github.com/digital-wallet-ledger/internal/config"
	"github.com/digital-wallet-ledger/internal/data/postgres"
	"github.com/digital-wallet-ledger/internal/domain/idempotency"
	"github.com/digital-wallet-ledger/internal/domain/transaction"
	"github.com/digital-wallet-ledger/internal/domain/user"
	"github.com/digital-wallet-ledger/internal/ledger"
	"github.com/digital-wallet-ledger/internal/logger"
	"github.com/digital-wallet-ledger/internal/platform/messaging"
	"github.com/digital-wallet-ledger/internal/platform/messaging/producers"
	"github.com/digital-wallet-ledger/internal/platform/metrics"
	"github.com/digital-wallet-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize PostgreSQL with app context (runs migrations on startup)
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	idempotencyRepo := postgres.NewIdempotencyRepository(log, postgresDB)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(log, postgresDB)

	// Initialize the optional transaction event feed
	var notifier *messaging.EventNotifier
	if cfg.Events.Enabled() {
		producer, err := producers.NewTransactionEventProducer(appCtx, log, &cfg.Events)
		if err != nil {
			log.Error("Failed to initialize transaction event producer", "error", err)
			postgresDB.Close()
			os.Exit(1)
		}

		notifier, err = messaging.NewEventNotifier(producer, cfg.Events.PoolSize, log)
		if err != nil {
			log.Error("Failed to initialize event notifier", "error", err)
			postgresDB.Close()
			os.Exit(1)
		}
		log.Info("Transaction event feed enabled", "topic", cfg.Events.Topic)
	}

	// Initialize metrics
	recorder := metrics.NewRecorder()

	// Initialize services
	ledgerEngine := newEngine(postgresDB, userRepo, transactionRepo, idempotencyRepo, notifier, recorder, log)
	authService := auth.NewService(userRepo, refreshTokenRepo, &cfg.JWT, log)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, api_gateway.Dependencies{
		Verifier:       authService,
		AuthService:    authService,
		Users:          userRepo,
		Ledger:         ledgerEngine,
		MetricsHandler: recorder.Handler(),
	})
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new operations reach the engine
	err = server.Stop(shutdownCtx)
	if err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain the event feed before closing the database
	if notifier != nil {
		notifier.Shutdown()
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}

// newEngine assembles the ledger engine. A disabled event feed is passed as
// a nil interface so the engine skips publishing entirely.
func newEngine(
	db *persistence.PostgresDB,
	users user.Repository,
	transactions transaction.Repository,
	keys idempotency.Repository,
	notifier *messaging.EventNotifier,
	recorder *metrics.Recorder,
	log *slog.Logger,
) *ledger.Engine {
	var engineNotifier ledger.Notifier
	if notifier != nil {
		engineNotifier = notifier
	}
	return ledger.NewEngine(db, users, transactions, keys, engineNotifier, recorder, log)
}
