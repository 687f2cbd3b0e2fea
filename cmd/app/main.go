// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"subscription-billing/internal/config"
	pg "subscription-billing/internal/infra/db/postgres"
	"subscription-billing/internal/infra/logging"
	"subscription-billing/internal/infra/metrics"
	red "subscription-billing/internal/infra/redis"
	"subscription-billing/internal/infra/sched"
	"subscription-billing/internal/infra/web"
	"subscription-billing/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	dedup := red.NewDedupStore(redisClient, cfg.Billing.DedupTTL)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	trRepo := pg.NewTransactionRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Use cases ----
	planUC := usecase.NewPlanUseCase(planRepo, cfg.Billing.DefaultPlanID)
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, tm, cfg.Billing.GracePeriodDays, logger)
	ledgerUC := usecase.NewLedgerUseCase(trRepo)
	subUC.AddListener(ledgerUC)
	subUC.AddListener(metrics.Listener{})
	reconcileUC := usecase.NewReconcileUseCase(userRepo, planRepo, subUC, ledgerUC, tm, dedup, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, subRepo)
	userUC := usecase.NewUserUseCase(userRepo, planUC, subUC)
	accessUC := usecase.NewAccessUseCase(userRepo, subRepo, planRepo, cfg.Billing.GracePeriodDays)

	metrics.MustRegister()

	// ---- Workers ----
	expiry := sched.NewExpiryWorker(cfg.Billing.SweepInterval, subUC, logger)
	go func() {
		if err := expiry.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("expiry worker stopped")
		}
	}()

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Admin.AuthSecret, cfg.Admin.SessionTTL)
	server := web.NewServer(planUC, subUC, ledgerUC, statsUC, reconcileUC, userUC, accessUC, auth, logger)
	logger.Info().Int("port", cfg.HTTP.Port).Msg("http server starting")
	if err := server.Start(ctx, cfg.HTTP.Port); err != nil {
		logger.Error().Err(err).Msg("http server stopped")
	}
}
