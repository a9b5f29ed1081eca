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

	"github.com/servitec-erp/servitec-erp/internal/app"
	"github.com/servitec-erp/servitec-erp/internal/finance/accounts"
	"github.com/servitec-erp/servitec-erp/internal/finance/chart"
	"github.com/servitec-erp/servitec-erp/internal/finance/dashboard"
	"github.com/servitec-erp/servitec-erp/internal/finance/movements"
	"github.com/servitec-erp/servitec-erp/internal/finance/statement"
	"github.com/servitec-erp/servitec-erp/internal/finance/transfers"
	"github.com/servitec-erp/servitec-erp/internal/observability"
	"github.com/servitec-erp/servitec-erp/internal/platform/cache"
	"github.com/servitec-erp/servitec-erp/internal/platform/db"
	"github.com/servitec-erp/servitec-erp/internal/shared"
	"github.com/servitec-erp/servitec-erp/jobs"
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

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	movementsRepo := movements.NewRepository(pool)
	movementsService := movements.NewService(movementsRepo, auditLogger, idempotencyStore, metrics)
	movementsHandler := movements.NewHandler(logger, movementsService)

	transfersService := transfers.NewService(movementsRepo, auditLogger, idempotencyStore, metrics)
	transfersHandler := transfers.NewHandler(logger, transfersService)

	chartRepo := chart.NewRepository(pool)
	chartService := chart.NewService(chartRepo)
	chartHandler := chart.NewHandler(logger, chartService)

	statementRepo := statement.NewRepository(pool)
	statementService := statement.NewService(chartService, statementRepo)
	statementHandler := statement.NewHandler(logger, statementService)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache, cfg.DashboardRecent)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(jobsClient, inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accountsHandler,
		MovementsHandler: movementsHandler,
		TransfersHandler: transfersHandler,
		ChartHandler:     chartHandler,
		StatementHandler: statementHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
