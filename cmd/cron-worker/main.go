package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ruialonso/taxilog-backend/internal/activation"
	"github.com/ruialonso/taxilog-backend/internal/cron"
	"github.com/ruialonso/taxilog-backend/internal/cycles"
	"github.com/ruialonso/taxilog-backend/internal/kvstore"
	"github.com/ruialonso/taxilog-backend/internal/trips"
	"github.com/ruialonso/taxilog-backend/pkg/config"
	"github.com/ruialonso/taxilog-backend/pkg/db"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
	"github.com/ruialonso/taxilog-backend/pkg/metrics"
	"github.com/ruialonso/taxilog-backend/pkg/migrate"
	"github.com/ruialonso/taxilog-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	kvRepo := kvstore.NewRepository(dbClient.DB())
	cyclesRepo := cycles.NewRepository(dbClient.DB())
	tripsRepo := trips.NewRepository(dbClient.DB())
	recurringRepo := trips.NewRecurringRepository(dbClient.DB())

	activationService, err := activation.NewService(kvRepo, cfg.Activation)
	if err != nil {
		logg.Error(context.Background(), "failed to create activation service", err)
		os.Exit(1)
	}

	cyclesService, err := cycles.NewService(cyclesRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cycles service", err)
		os.Exit(1)
	}

	tripsService, err := trips.NewService(tripsRepo, recurringRepo, cyclesService)
	if err != nil {
		logg.Error(context.Background(), "failed to create trips service", err)
		os.Exit(1)
	}

	expiryJob, err := cron.NewExpiryWarningJob(cron.ExpiryWarningJobParams{
		Logger:      logg,
		Activation:  activationService,
		WarningDays: cfg.Activation.WarningDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry warning job", err)
		os.Exit(1)
	}

	watchdogJob, err := cron.NewCycleWatchdogJob(cron.CycleWatchdogJobParams{
		Logger: logg,
		Cycles: cyclesService,
		Trips:  tripsService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cycle watchdog job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(cfg.Cron.LockKey), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(expiryJob, watchdogJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
