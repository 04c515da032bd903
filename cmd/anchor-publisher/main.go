package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agritrace/agritrace-backend/pkg/anchor"
	"github.com/agritrace/agritrace-backend/pkg/config"
	"github.com/agritrace/agritrace-backend/pkg/db"
	"github.com/agritrace/agritrace-backend/pkg/instance"
	"github.com/agritrace/agritrace-backend/pkg/logger"
	"github.com/agritrace/agritrace-backend/pkg/metrics"
	"github.com/agritrace/agritrace-backend/pkg/migrate"
	"github.com/agritrace/agritrace-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "anchor-publisher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "anchor-publisher"

	logg = logger.New(logger.Options{
		ServiceName: "anchor-publisher",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	registry := prometheus.NewRegistry()
	publisherMetrics := metrics.NewAnchorPublisherMetrics(registry)

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		Repository: anchor.NewRepository(dbClient.DB()),
		Publisher:  newGCPPublisher(pubsubClient.AnchorPublisher()),
		Metrics:    publisherMetrics,
		Pingers: map[string]pinger{
			"database": dbClient,
			"pubsub":   pubsubClient,
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create anchor publisher", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "anchor-publisher",
		"instance":    instance.GetID(),
	})

	go serveMetrics(ctx, logg, registry, cfg.App.Port)

	logg.Info(ctx, "starting anchor publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "anchor publisher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "anchor publisher shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, registry *prometheus.Registry, port string) {
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}
	if port == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics listener stopped unexpectedly", err)
	}
}
