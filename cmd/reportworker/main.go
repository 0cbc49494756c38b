package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/seongmin-dev/welfare-report/internal/catalog"
	"github.com/seongmin-dev/welfare-report/internal/common"
	"github.com/seongmin-dev/welfare-report/internal/llm/openai"
	"github.com/seongmin-dev/welfare-report/internal/notify"
	"github.com/seongmin-dev/welfare-report/internal/pipeline"
	"github.com/seongmin-dev/welfare-report/internal/queue"
	repo "github.com/seongmin-dev/welfare-report/internal/repository"
	"github.com/seongmin-dev/welfare-report/internal/telemetry"
	"github.com/seongmin-dev/welfare-report/internal/userctx"
)

// reportworker consumes queued report requests and runs the generation
// pipeline: user context, candidate selection, reasoning with policy
// validation, persistence and notification.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.ValidateWorker(); err != nil {
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

	src, err := catalog.NewFileSource(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Error("catalog source", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}
	cat, err := catalog.Load(ctx, src, logger)
	if err != nil {
		logger.Error("catalog load", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}

	taskRepo := repo.NewTaskRepository(pool, logger)
	reportRepo := repo.NewReportRepository(pool, logger)
	profileRepo := repo.NewProfileRepository(pool, logger)
	activityRepo := repo.NewActivityRepository(pool, logger)

	telemetryClient := telemetry.NewClient(telemetry.Config{
		BaseURL:    cfg.Telemetry.BaseURL,
		ServiceKey: cfg.Telemetry.ServiceKey,
		Timeout:    cfg.Telemetry.Timeout,
	}, logger)

	builder := &userctx.Builder{
		Profiles:    profileRepo,
		Activity:    activityRepo,
		Telemetry:   telemetryClient,
		MileageDays: cfg.Telemetry.WindowDays,
		Log:         logger,
	}

	generator := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	notifier := &notify.Notifier{
		Profiles: profileRepo,
		Push: notify.NewHTTPPushClient(notify.PushConfig{
			BaseURL: cfg.Push.BaseURL,
			APIKey:  cfg.Push.APIKey,
			Timeout: cfg.Push.Timeout,
		}, logger),
		Log:      logger,
	}

	processor := &pipeline.Processor{
		Tasks:    taskRepo,
		Reports:  reportRepo,
		Builder:  builder,
		Catalog:  cat,
		Loop:     &pipeline.ValidationLoop{Engine: generator, Log: logger},
		Notifier: notifier,
		Log:      logger,
	}

	workQueue := queue.NewPostgresQueue(pool, queue.Config{
		MaxAttempts: cfg.Queue.MaxAttempts,
		StuckAfter:  cfg.Queue.StuckAfter,
	}, logger)

	poller := &queue.Poller{
		ID:       workerID(),
		Consumer: workQueue,
		Handler:  processor,
		Interval: cfg.Queue.PollInterval,
		Log:      logger,
	}

	logger.Info("worker.starting", "worker_id", poller.ID, "catalog_entries", cat.Len())
	poller.Run(ctx)

	// Give in-flight pushes and acks a moment to finish before the pool closes.
	time.Sleep(200 * time.Millisecond)
	logger.Info("worker.stopped")
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s", host, uuid.New().String()[:8])
}
