package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridianhq/meridian/internal/app"
	"github.com/meridianhq/meridian/internal/documents"
	"github.com/meridianhq/meridian/internal/filings"
	"github.com/meridianhq/meridian/internal/platform/cache"
	"github.com/meridianhq/meridian/internal/platform/db"
	"github.com/meridianhq/meridian/internal/scoring"
	"github.com/meridianhq/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	expiryWindow := time.Duration(cfg.ScoreExpiryDays) * 24 * time.Hour
	scoringService := scoring.NewService(
		scoring.NewRepository(pool, expiryWindow),
		scoring.NewCache(redisClient, 10*time.Minute),
	)

	directory := jobs.NewDirectory(pool)
	scoreJob := jobs.NewScoreRecomputeJob(scoringService, logger, nil)
	expiryJob := jobs.NewDocumentExpiryJob(documents.NewRepository(pool), directory, jobClient, logger, nil)
	reminderJob := jobs.NewFilingReminderJob(filings.NewRepository(pool), directory, jobClient, logger, nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskScoreRecompute, Handler: scoreJob.HandleRecompute},
			{Type: jobs.TaskScoreSweep, Handler: scoreJob.HandleSweep},
			{Type: jobs.TaskDocumentExpiryScan, Handler: expiryJob.Handle},
			{Type: jobs.TaskFilingReminder, Handler: reminderJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 2 * * *", Task: jobs.NewScoreSweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * *", Task: jobs.NewDocumentExpiryTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 7 * * *", Task: jobs.NewFilingReminderTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
