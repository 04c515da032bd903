package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agritrace/agritrace-backend/api/controllers"
	"github.com/agritrace/agritrace-backend/api/middleware"
	"github.com/agritrace/agritrace-backend/internal/batches"
	"github.com/agritrace/agritrace-backend/internal/portable"
	"github.com/agritrace/agritrace-backend/internal/pricing"
	"github.com/agritrace/agritrace-backend/pkg/config"
	"github.com/agritrace/agritrace-backend/pkg/logger"
	"github.com/agritrace/agritrace-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	Batches     batches.Service
	Pricing     pricing.Service
	RecordCodec *portable.Codec

	// Readiness pingers, keyed by dependency name. Nil entries are skipped.
	Pingers map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	// Interfaces stay nil when Redis is absent so the middlewares disable
	// themselves instead of calling through a nil client.
	var idempotencyStore redis.IdempotencyStore
	var rateLimitStore middleware.RateLimitStore
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		rateLimitStore = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	scanPolicy := middleware.NewRateLimitPolicy(
		"scan",
		cfg.RateLimit.ScanWindow,
		cfg.RateLimit.ScanIPLimit,
	)

	// Public surface: record decoding needs no credentials, a decoded record
	// is self-authenticating.
	r.Route("/api/public", func(r chi.Router) {
		r.Use(middleware.RateLimit(scanPolicy, rateLimitStore, logg))
		r.Post("/records/decode", controllers.DecodeRecord(deps.RecordCodec, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", controllers.RegisterBatch(deps.Batches, logg))
			r.Get("/", controllers.ListBatches(deps.Batches, logg))
			r.Get("/status-summary", controllers.BatchStatusSummary(deps.Batches, logg))

			r.Route("/{batchId}", func(r chi.Router) {
				r.Get("/", controllers.GetBatch(deps.Batches, logg))
				r.Get("/history", controllers.BatchHistory(deps.Batches, logg))
				r.Get("/record", controllers.EncodeBatchRecord(deps.Batches, deps.RecordCodec, logg))
				r.Get("/certifications/{certificateId}/record", controllers.EncodeCertificateRecord(deps.Batches, deps.RecordCodec, logg))
				r.Post("/transition", controllers.TransitionBatch(deps.Batches, logg))
				r.Post("/quality-checks", controllers.AddQualityCheck(deps.Batches, logg))
				r.Post("/certifications", controllers.AddCertification(deps.Batches, logg))
				r.Post("/pricing", controllers.SetBatchPricing(deps.Batches, logg))
				r.Post("/recall", controllers.RecallBatch(deps.Batches, logg))
			})
		})

		r.Route("/fair-prices", func(r chi.Router) {
			r.Put("/", controllers.SetFairPriceRange(deps.Pricing, logg))
			r.Get("/", controllers.ListFairPriceRanges(deps.Pricing, logg))
			r.Get("/{produceType}", controllers.GetFairPriceRange(deps.Pricing, logg))
		})
	})

	return r
}
