package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/app"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/catalog"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/leads"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/messages"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/cache"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/quotes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/jobs"
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
		logger.Error("connect database", slog.Any("error", err))
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

	registry, err := regions.LoadFile(cfg.RegionsFile, cfg.DefaultRegion)
	if err != nil {
		logger.Error("load regions", slog.Any("error", err))
		os.Exit(1)
	}

	generator := codes.NewGenerator(cache.NewLocker(redisClient, cfg.CodeLockTTL), cfg.CodeLockTTL)
	// Expiry publishes nothing, so the quote service gets a no-op notifier.
	catalogService := catalog.NewService(catalog.NewRepository(pool))
	leadReader := leads.NewService(leads.NewRepository(pool), catalogService, generator, logger)
	quoteService := quotes.NewService(quotes.NewRepository(pool), leadReader, registry, generator, notify.Nop{}, logger,
		quotes.Config{DefaultValidityDays: cfg.QuoteValidityDays})

	textClient := messages.NewClient(messages.ClientConfig{
		BaseURL: cfg.TextGenURL,
		APIKey:  cfg.TextGenAPIKey,
		Model:   cfg.TextGenModel,
		Timeout: cfg.TextGenTimeout,
	})
	messageService := messages.NewService(messages.NewRepository(pool), textClient, cfg.BusinessName, logger)

	messageJob := jobs.NewMessageJob(messageService, logger, nil)
	expiryJob := jobs.NewQuoteExpiryJob(quoteService, logger, nil)

	expireTask, err := jobs.NewExpireQuotesTask(0)
	if err != nil {
		logger.Error("build expiry task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    registry.Default().Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskGenerateMessage, Handler: messageJob.Handle},
			{Type: jobs.TaskExpireQuotes, Handler: expiryJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: expireTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
