package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"takings/internal/amqp"
	"takings/internal/config"
	apphttp "takings/internal/http"
	applog "takings/internal/log"
	"takings/internal/services"
	"takings/internal/sheets"
	gsheet "takings/internal/sheets/google"
	"takings/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker).
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.RecordPolicy)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	// Queue is optional; without it saves fall back to a direct best-effort
	// mirror attempt.
	var queue *amqp.Client
	if cfg.AMQPURL != "" {
		queue, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, saves will mirror directly", "error", err)
			queue = nil
		}
	}

	var mirror sheets.RecordAppender
	if queue == nil && cfg.Sheets.Enabled {
		client, err := gsheet.New(context.Background(), cfg.Sheets)
		if err != nil {
			logger.Error("Failed to initialize sheets client", "error", err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Direct sheets mirror enabled", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
	}

	svc := services.NewRecordService(store, queue, mirror)
	defer svc.Close()

	srv := apphttp.NewServer(":"+cfg.Port, svc, store)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting takings server",
		"port", cfg.Port,
		"record_policy", cfg.RecordPolicy,
		"queue", queue != nil,
		"sheets_enabled", cfg.Sheets.Enabled)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
