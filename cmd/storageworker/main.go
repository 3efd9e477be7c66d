package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	queuenats "github.com/QriusGlobal/formio-server-sub004/internal/adapters/queue/nats"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/repository/postgres"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/staging"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/storage/local"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/storage/minio"
	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/checksum"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/storagejob"

	_ "github.com/lib/pq"
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("db connection established")

	// Initialize staging, shared with the API over the same filesystem
	stage, err := staging.NewDisk(cfg.Upload.StagingDir)
	if err != nil {
		logger.Error("failed to init chunk staging", "error", err)
		os.Exit(1)
	}

	// Initialize storage backend
	uploader, err := initUploader(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init storage backend", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	logger.Info("storage backend initialized", "backend", cfg.Storage.Backend)

	// Initialize services
	recordRepo := postgres.NewSQLUploadRecordRepository(db)
	checksummer := checksum.NewService(cfg.Checksum)
	jobService := storagejob.NewStorageJobService(uploader, stage, recordRepo, checksummer, cfg.Worker, logger)

	// Initialize NATS consumer pool
	consumers := make([]*queuenats.Consumer, 0, cfg.Worker.PoolSize)
	for i := 0; i < cfg.Worker.PoolSize; i++ {
		consumer, err := queuenats.NewConsumer(cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to create NATS consumer", "error", err)
			os.Exit(1)
		}
		if err := consumer.Subscribe(ctx, jobService); err != nil {
			logger.Error("failed to subscribe to NATS", "error", err)
			os.Exit(1)
		}
		consumers = append(consumers, consumer)
	}
	logger.Info("NATS subscriptions active", "pool_size", cfg.Worker.PoolSize)

	// Wait for termination signal
	<-ctx.Done()
	logger.Info("gracefully shutting down storage worker")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		for _, consumer := range consumers {
			if err := consumer.Close(); err != nil {
				logger.Error("failed to close NATS consumer", "error", err)
			}
		}
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			logger.Info("shutdown timeout exceeded")
		}
	}

	logger.Info("storage worker shutdown complete")
}

func initUploader(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.Uploader, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return minio.NewAdapter(ctx, cfg.Minio, logger)
	case "local":
		return local.NewAdapter(cfg.Local, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}
