package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expensed/internal/amqp"
	"expensed/internal/config"
	apphttp "expensed/internal/http"
	"expensed/internal/services"
	"expensed/internal/storage"
	"expensed/internal/storage/memory"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		store     services.Store
		publisher services.EventPublisher
		cleanup   func() error
	)

	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		store = repo
		cleanup = repo.Close

		// AMQP is optional; without it the worker's periodic sweep still
		// picks up pending exports.
		if cfg.AMQPURL != "" {
			amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				logger.Warn("Failed to initialize AMQP client, continuing without export events", "error", err)
			} else {
				publisher = amqpClient
				prev := cleanup
				cleanup = func() error {
					amqpClient.Close()
					return prev()
				}
				logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			}
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	default:
		store = memory.NewFromFiles("data")
		logger.Info("Initialized memory backend")
	}

	ingestion := services.NewIngestionService(store, publisher)
	analytics := services.NewAnalyticsService(store, cfg.DateFormat)

	srv := apphttp.NewServer(":"+cfg.Port, ingestion, analytics)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
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

	logger.Info("Starting expensed server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	if cleanup != nil {
		if err := cleanup(); err != nil {
			logger.Error("Cleanup error", "error", err)
		}
	}
	logger.Info("Server stopped gracefully")
}
