package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/api/middleware"
	"github.com/agritrace/agritrace-backend/api/responses"
	"github.com/agritrace/agritrace-backend/api/validators"
	"github.com/agritrace/agritrace-backend/internal/pricing"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/logger"
)

type setFairPriceRequest struct {
	ProduceType string          `json:"produceType" validate:"required"`
	MinPrice    decimal.Decimal `json:"minPrice"`
	MaxPrice    decimal.Decimal `json:"maxPrice" validate:"required"`
	Currency    string          `json:"currency,omitempty"`
}

// SetFairPriceRange handles PUT /api/v1/fair-prices.
func SetFairPriceRange(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req setFairPriceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.SetRange(r.Context(), actor, pricing.SetRangeInput{
			ProduceType: req.ProduceType,
			MinPrice:    req.MinPrice,
			MaxPrice:    req.MaxPrice,
			Currency:    enums.Currency(req.Currency),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// GetFairPriceRange handles GET /api/v1/fair-prices/{produceType}.
func GetFairPriceRange(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		produceType := strings.TrimSpace(chi.URLParam(r, "produceType"))
		dto, err := svc.GetRange(r.Context(), produceType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListFairPriceRanges handles GET /api/v1/fair-prices.
func ListFairPriceRanges(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ranges, err := svc.ListRanges(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ranges)
	}
}
