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

	"github.com/hibiken/asynq"

	"github.com/meridianhq/meridian/internal/app"
	"github.com/meridianhq/meridian/internal/auth"
	"github.com/meridianhq/meridian/internal/authz"
	"github.com/meridianhq/meridian/internal/clients"
	"github.com/meridianhq/meridian/internal/dashboard"
	"github.com/meridianhq/meridian/internal/documents"
	"github.com/meridianhq/meridian/internal/filings"
	"github.com/meridianhq/meridian/internal/messaging"
	"github.com/meridianhq/meridian/internal/observability"
	"github.com/meridianhq/meridian/internal/platform/cache"
	"github.com/meridianhq/meridian/internal/platform/db"
	"github.com/meridianhq/meridian/internal/requests"
	"github.com/meridianhq/meridian/internal/scoring"
	"github.com/meridianhq/meridian/internal/shared"
	"github.com/meridianhq/meridian/internal/users"
	"github.com/meridianhq/meridian/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	engine := authz.NewEngine(nil)
	authzMW := authz.Middleware{Engine: engine, Logger: logger}

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

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	clientService := clients.NewService(clients.NewRepository(pool), auditLogger)
	clientHandler := clients.NewHandler(logger, clientService, authzMW)

	documentService := documents.NewService(documents.NewRepository(pool), auditLogger)
	documentHandler := documents.NewHandler(logger, documentService, authzMW)

	filingService := filings.NewService(filings.NewRepository(pool), auditLogger, jobClient)
	filingHandler := filings.NewHandler(logger, filingService, authzMW)

	requestService := requests.NewService(requests.NewRepository(pool), auditLogger)
	requestHandler := requests.NewHandler(logger, requestService, authzMW)

	messagingService := messaging.NewService(messaging.NewRepository(pool))
	messagingHandler := messaging.NewHandler(logger, messagingService, authzMW)

	scoringService := scoring.NewService(
		scoring.NewRepository(pool, expiryWindow),
		scoring.NewCache(redisClient, 10*time.Minute),
	)
	scoringHandler := scoring.NewHandler(logger, scoringService, jobClient, authzMW)

	dashboardService := dashboard.NewService(
		dashboard.NewStatsRepository(pool),
		dashboard.NewCache(redisClient, cfg.DashboardCacheTTL),
	)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, authzMW)

	userService := users.NewService(users.NewRepository(pool), auditLogger)
	userHandler := users.NewHandler(logger, userService, authzMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,

		AuthHandler:      authHandler,
		ClientsHandler:   clientHandler,
		DocumentsHandler: documentHandler,
		FilingsHandler:   filingHandler,
		RequestsHandler:  requestHandler,
		MessagingHandler: messagingHandler,
		DashboardHandler: dashboardHandler,
		ScoringHandler:   scoringHandler,
		UsersHandler:     userHandler,
		JobHandler:       jobHandler,

		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
			os.Exit(1)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
