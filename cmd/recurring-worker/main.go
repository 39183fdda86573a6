package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"grana/internal/amqp"
	"grana/internal/config"
	"grana/internal/log"
	"grana/internal/services"
	"grana/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentSubscription)
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// AMQP is optional here: materialized transactions still land in SQLite
	// and the flag worker catches up on its periodic refresh.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	transactionService := services.NewTransactionService(sqliteRepo, amqpClient, nil, nil)
	processor := services.NewSubscriptionProcessor(sqliteRepo, transactionService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run initial processing on startup
	logger.Info("Running initial subscription processing...")
	if count, err := processor.ProcessDueSubscriptions(ctx, time.Now()); err != nil {
		logger.Error("Initial processing failed", "error", err)
	} else {
		logger.Info("Initial processing complete", "transactions_created", count)
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.SubscriptionCron, func() {
		now := time.Now()
		logger.Info("Processing due subscriptions...")
		count, err := processor.ProcessDueSubscriptions(ctx, now)
		if err != nil {
			logger.Error("Scheduled processing failed", "error", err)
			return
		}
		logger.Info("Scheduled processing complete", "transactions_created", count)
	})
	if err != nil {
		logger.Error("Invalid cron expression", "error", err, "cron", cfg.SubscriptionCron)
		os.Exit(1)
	}

	scheduler.Start()
	logger.Info("Subscription scheduler started",
		"cron", cfg.SubscriptionCron,
		"sqlite_db", cfg.SQLiteDBPath)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	cancel()
	stopCtx := scheduler.Stop()

	select {
	case <-stopCtx.Done():
		logger.Info("Recurring-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
