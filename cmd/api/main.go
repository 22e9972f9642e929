package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/ruialonso/taxilog-backend/api/routes"
	"github.com/ruialonso/taxilog-backend/internal/activation"
	"github.com/ruialonso/taxilog-backend/internal/backup"
	"github.com/ruialonso/taxilog-backend/internal/cycles"
	"github.com/ruialonso/taxilog-backend/internal/extraction"
	"github.com/ruialonso/taxilog-backend/internal/kvstore"
	"github.com/ruialonso/taxilog-backend/internal/reports"
	"github.com/ruialonso/taxilog-backend/internal/trips"
	"github.com/ruialonso/taxilog-backend/pkg/config"
	"github.com/ruialonso/taxilog-backend/pkg/db"
	"github.com/ruialonso/taxilog-backend/pkg/gemini"
	"github.com/ruialonso/taxilog-backend/pkg/logger"
	"github.com/ruialonso/taxilog-backend/pkg/migrate"
	"github.com/ruialonso/taxilog-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	backupService, err := backup.NewService(kvRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create backup service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(cyclesRepo, tripsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	// Ticket scanning is optional: without an API key the /v1/scan endpoint
	// reports the extractor as unavailable instead of blocking startup.
	var extractionService extraction.Service
	if cfg.Extraction.APIKey != "" {
		geminiOpts := []gemini.Option{
			gemini.WithHTTPClient(&http.Client{Timeout: cfg.Extraction.Timeout}),
			gemini.WithModel(cfg.Extraction.Model),
		}
		if cfg.Extraction.BaseURL != "" {
			geminiOpts = append(geminiOpts, gemini.WithBaseURL(cfg.Extraction.BaseURL))
		}
		geminiClient, err := gemini.NewClient(cfg.Extraction.APIKey, geminiOpts...)
		if err != nil {
			logg.Error(context.Background(), "failed to create gemini client", err)
			os.Exit(1)
		}
		extractionService, err = extraction.NewService(geminiClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create extraction service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "extraction api key not set, ticket scanning disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			activationService,
			cyclesService,
			tripsService,
			backupService,
			reportsService,
			extractionService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr := server.Shutdown(timeoutCtx)
		if serveErr := <-errCh; serveErr != nil && serveErr != http.ErrServerClosed {
			shutdownErr = multierr.Append(shutdownErr, serveErr)
		}
		if shutdownErr != nil {
			logg.Error(ctx, "api server shutdown error", shutdownErr)
		}
	}
}
