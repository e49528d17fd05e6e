package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-settlement/config"
	httpHandler "expense-settlement/internal/adapter/http/handler"
	pgStorage "expense-settlement/internal/adapter/storage/postgres"
	redisStorage "expense-settlement/internal/adapter/storage/redis"
	"expense-settlement/internal/core/ports"
	"expense-settlement/internal/service"
	"expense-settlement/pkg/logger"
)

const (
	openAPIPath     = "docs/api/openapi.yaml"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("missing_shares_policy", cfg.Settlement.MissingSharesPolicy).
		Msg("Starting Expense Settlement service")

	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(cfg.Database.DSN(), logger.Component(log, "migrate")); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply database migrations")
		}
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Repositories
	eventRepo := pgStorage.NewEventRepo(pool)
	participantRepo := pgStorage.NewParticipantRepo(pool)
	expenseRepo := pgStorage.NewExpenseRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Redis stores
	reportCache := redisStorage.NewReportCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	expenseSvc := service.NewExpenseService(
		eventRepo,
		participantRepo,
		expenseRepo,
		reportCache,
		transactor,
		logger.Component(log, "expense"),
	)
	settlementSvc := service.NewSettlementService(
		eventRepo,
		participantRepo,
		expenseRepo,
		reportCache,
		service.SettlementOptions{
			MissingShares: service.MissingSharesPolicy(cfg.Settlement.MissingSharesPolicy),
			CacheTTL:      cfg.Settlement.ReportCacheTTL,
		},
		logger.Component(log, "settlement"),
	)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	if specBytes, err := os.ReadFile(openAPIPath); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ExpenseSvc:     expenseSvc,
		SettlementSvc:  settlementSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
		AuditSvc:       auditSvc,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
