package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/seongmin-dev/welfare-report/internal/common"
	"github.com/seongmin-dev/welfare-report/internal/queue"
	repo "github.com/seongmin-dev/welfare-report/internal/repository"
	"github.com/seongmin-dev/welfare-report/internal/server"
	"github.com/seongmin-dev/welfare-report/internal/tasks"
)

// reportd is the API server: it accepts report requests, answers status
// reads and serves the latest persisted report. Generation itself runs in
// reportworker.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("open db", "error", err)
		os.Exit(1)
	}
	defer repo.Close(pool, logger)

	if err := repo.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("db health check failed", "error", err)
		os.Exit(1)
	}

	taskRepo := repo.NewTaskRepository(pool, logger)
	reportRepo := repo.NewReportRepository(pool, logger)
	workQueue := queue.NewPostgresQueue(pool, queue.Config{
		MaxAttempts: cfg.Queue.MaxAttempts,
		StuckAfter:  cfg.Queue.StuckAfter,
	}, logger)

	dispatcher := &tasks.Dispatcher{
		Tasks: taskRepo,
		Queue: workQueue,
		Log:   logger,
	}

	handler := &server.Handler{
		Dispatcher: dispatcher,
		Reports:    reportRepo,
		Log:        logger,
	}

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewRouter(handler, cfg.Server.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http.listening", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("shutdown complete")
}
