package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nippon-flex/servicios-rapidos-ec/cmd/servicios/cli"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/app"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/catalog"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/codes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/leads"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/messages"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/observability"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/orders"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/payments"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/cache"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/quotes"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/regions"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/reporting"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/warranty"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/workers"
	"github.com/nippon-flex/servicios-rapidos-ec/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCommand(ctx, cfg, os.Args[2:]))
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	generator := codes.NewGenerator(cache.NewLocker(redisClient, cfg.CodeLockTTL), cfg.CodeLockTTL)
	metrics := observability.NewMetrics()

	catalogService := catalog.NewService(catalog.NewRepository(dbpool))
	workerService := workers.NewService(workers.NewRepository(dbpool))
	leadService := leads.NewService(leads.NewRepository(dbpool), catalogService, generator, logger)
	quoteService := quotes.NewService(quotes.NewRepository(dbpool), leadService, registry, generator, jobClient, logger,
		quotes.Config{DefaultValidityDays: cfg.QuoteValidityDays})
	orderService := orders.NewService(orders.NewRepository(dbpool), workerService, registry, generator, logger)
	paymentService := payments.NewService(payments.NewRepository(dbpool), orderService, workerService, jobClient, logger)
	warrantyService := warranty.NewService(warranty.NewRepository(dbpool), orderService, registry, generator, jobClient, logger)
	textClient := messages.NewClient(messages.ClientConfig{
		BaseURL: cfg.TextGenURL,
		APIKey:  cfg.TextGenAPIKey,
		Model:   cfg.TextGenModel,
		Timeout: cfg.TextGenTimeout,
	})
	messageService := messages.NewService(messages.NewRepository(dbpool), textClient, cfg.BusinessName, logger)
	reportingService := reporting.NewService(reporting.NewRepository(dbpool), registry, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Regions: registry,
		Metrics: metrics,
		Health: map[string]app.HealthCheck{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return cache.Ping(ctx, redisClient)
			},
		},
		CatalogHandler:   catalog.NewHandler(logger, catalogService),
		WorkersHandler:   workers.NewHandler(logger, workerService),
		LeadsHandler:     leads.NewHandler(logger, leadService),
		QuotesHandler:    quotes.NewHandler(logger, quoteService),
		OrdersHandler:    orders.NewHandler(logger, orderService),
		PaymentsHandler:  payments.NewHandler(logger, paymentService),
		WarrantyHandler:  warranty.NewHandler(logger, warrantyService),
		MessagesHandler:  messages.NewHandler(logger, messageService),
		ReportingHandler: reporting.NewHandler(logger, reportingService),
		JobHandler:       jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runJobsCommand(ctx context.Context, cfg *app.Config, args []string) int {
	jobsCLI, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		slog.Default().Error("init jobs cli", slog.Any("error", err))
		return 1
	}
	defer func() { _ = jobsCLI.Close() }()
	return jobsCLI.Command(ctx, args, os.Stdout, os.Stderr)
}
