package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/agritrace/agritrace-backend/api/controllers"
	"github.com/agritrace/agritrace-backend/api/routes"
	"github.com/agritrace/agritrace-backend/internal/batches"
	"github.com/agritrace/agritrace-backend/internal/portable"
	"github.com/agritrace/agritrace-backend/internal/pricing"
	"github.com/agritrace/agritrace-backend/pkg/anchor"
	"github.com/agritrace/agritrace-backend/pkg/config"
	"github.com/agritrace/agritrace-backend/pkg/db"
	"github.com/agritrace/agritrace-backend/pkg/logger"
	"github.com/agritrace/agritrace-backend/pkg/migrate"
	"github.com/agritrace/agritrace-backend/pkg/redis"
	"github.com/agritrace/agritrace-backend/pkg/signing"
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

	signer, err := signing.NewSigner(cfg.Signing.RecordSecret)
	if err != nil {
		logg.Error(context.Background(), "failed to create record signer", err)
		os.Exit(1)
	}
	recordCodec, err := portable.NewCodec(signer, cfg.Signing.AppBaseURL, cfg.Signing.APIBaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create record codec", err)
		os.Exit(1)
	}

	anchorService := anchor.NewService(anchor.NewRepository(dbClient.DB()), logg)

	pricingService, err := pricing.NewService(pricing.NewRepository(dbClient.DB()), dbClient, anchorService)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	batchService, err := batches.NewService(
		batches.NewRepository(dbClient.DB()),
		dbClient,
		anchorService,
		pricingService,
		cfg.FairPrice.SaveRetryAttempts,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create batch service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			Redis:       redisClient,
			Batches:     batchService,
			Pricing:     pricingService,
			RecordCodec: recordCodec,
			Pingers: map[string]controllers.Pinger{
				"postgres": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
