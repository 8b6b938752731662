package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"takings/internal/amqp"
	"takings/internal/config"
	applog "takings/internal/log"
	gsheet "takings/internal/sheets/google"
	"takings/internal/storage"
	"takings/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}
	if !cfg.Sheets.Enabled {
		logger.Error("SHEETS_ENABLED must be true for the sync worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.RecordPolicy)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	sheet, err := gsheet.New(ctx, cfg.Sheets)
	if err != nil {
		logger.Error("Failed to initialize sheets client", "error", err)
		os.Exit(1)
	}

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	syncWorker := worker.NewSyncWorker(store, sheet, cfg.SyncBatchSize)

	// Catch up on anything that accumulated while the worker was down.
	if err := syncWorker.SyncPending(ctx); err != nil {
		logger.Error("Startup pending sync failed", "error", err)
	}

	logger.Info("Starting sync worker",
		"queue", cfg.AMQPQueue,
		"batch_size", cfg.SyncBatchSize,
		"sync_interval", cfg.SyncInterval.String())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return queue.ConsumeRecordSync(gctx, syncWorker.HandleSyncMessage)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := syncWorker.SyncPending(gctx); err != nil {
					logger.Error("Periodic pending sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
