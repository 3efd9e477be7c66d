package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/handlers/http/chi"
	uploadhandler "github.com/QriusGlobal/formio-server-sub004/internal/adapters/handlers/http/chi/upload"
	queuenats "github.com/QriusGlobal/formio-server-sub004/internal/adapters/queue/nats"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/repository/postgres"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/sessionstore/memory"
	"github.com/QriusGlobal/formio-server-sub004/internal/adapters/staging"
	"github.com/QriusGlobal/formio-server-sub004/internal/config"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/port"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/checksum"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/cleanup"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/completion"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/security"
	"github.com/QriusGlobal/formio-server-sub004/internal/core/service/upload"

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

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		logger.Error("failed to init database", "error", err)
		os.Exit(1)
	}
	defer func(db *sql.DB) {
		err := db.Close()
		if err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}(db)
	logger.Info("db connection established")

	stage, err := staging.NewDisk(cfg.Upload.StagingDir)
	if err != nil {
		logger.Error("failed to init chunk staging", "error", err)
		os.Exit(1)
	}

	//queue
	producer, err := queuenats.NewProducer(ctx, cfg.NATS, logger)
	if err != nil {
		logger.Error("failed to init NATS producer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("failed to close NATS producer", "error", err)
		}
	}()
	logger.Info("NATS producer initialized")

	//repositories
	sessionStore := memory.NewStore(stage)
	recordRepo := postgres.NewSQLUploadRecordRepository(db)

	//services
	validator := security.NewValidator(cfg.Security)
	checksummer := checksum.NewService(cfg.Checksum)
	hook := completion.NewCompletionHook(producer, recordRepo, logger)
	uploadService := upload.NewUploadService(sessionStore, validator, hook, checksummer, cfg.Upload, logger)
	cleanupService := cleanup.NewCleanupService(sessionStore, logger)

	//http
	uploadHandler := uploadhandler.NewUploadHandler(uploadService, logger)

	router := chi.NewRouter(logger, uploadHandler, cfg.Env.Env)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// init session cleanup task
	wg.Add(1)
	go func() {
		defer wg.Done()
		initCleanupTask(ctx, cleanupService, cfg.Upload.CleanupEvery, logger)
	}()

	// init rate limiter cleanup task
	wg.Add(1)
	go func() {
		defer wg.Done()
		initRateLimitCleanupTask(ctx, validator, cfg.Security.RateLimitCleanup, logger)
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

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
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

func initCleanupTask(ctx context.Context, service port.CleanupService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("session cleanup task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			err := service.CleanupExpiredSessions(ctx, time.Now())
			if err != nil {
				logger.Error("failed to cleanup expired sessions", "error", err)
			}
		case <-ctx.Done():
			logger.Info("session cleanup task stopped")
			return
		}
	}

}

func initRateLimitCleanupTask(ctx context.Context, validator *security.Validator, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("rate limit cleanup task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			removed := validator.CleanupIdleClients(time.Now())
			if removed > 0 {
				logger.Info("rate limit records evicted", "count", removed)
			}
		case <-ctx.Done():
			logger.Info("rate limit cleanup task stopped")
			return
		}
	}
}
