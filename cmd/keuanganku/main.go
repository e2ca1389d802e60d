package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"keuanganku/internal/amqp"
	"keuanganku/internal/config"
	apphttp "keuanganku/internal/http"
	applog "keuanganku/internal/log"
	"keuanganku/internal/remote"
	"keuanganku/internal/services"
	"keuanganku/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting keuanganku server")

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

	// AMQP is optional: without it creates are stored locally and picked up
	// by the periodic worker sync instead of being pushed right away.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sync queue", "error", err)
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	transactions := services.NewTransactionService(sqliteRepo, amqpClient)
	summaries := services.NewSummaryService(sqliteRepo)

	deps := apphttp.Deps{
		Store:        sqliteRepo,
		Transactions: transactions,
		Summaries:    summaries,
	}

	// The remote backend is optional as well; sync and export endpoints
	// answer 503 until it is configured.
	if cfg.RemoteEnabled() {
		remoteClient := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteAPIKey, cfg.RemoteUserID, cfg.RemoteTimeout)
		bucketClient := remote.NewBucketClient(cfg.RemoteBaseURL, cfg.RemoteAPIKey, cfg.RemoteBucket, cfg.RemoteTimeout)

		deps.Sync = services.NewSyncService(sqliteRepo, remoteClient)
		deps.Exporter = services.NewExportService(sqliteRepo, bucketClient)
		deps.Pinger = remoteClient
		logger.Info("Remote backend configured", "base_url", cfg.RemoteBaseURL, "bucket", cfg.RemoteBucket)
	} else {
		logger.Info("Remote backend disabled - no REMOTE_BASE_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
