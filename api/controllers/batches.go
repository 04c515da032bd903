package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/api/middleware"
	"github.com/agritrace/agritrace-backend/api/responses"
	"github.com/agritrace/agritrace-backend/api/validators"
	"github.com/agritrace/agritrace-backend/internal/batches"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/logger"
	"github.com/agritrace/agritrace-backend/pkg/pagination"
)

type locationRequest struct {
	Name      string   `json:"name" validate:"required"`
	Address   *string  `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
}

func (l *locationRequest) toInput() *batches.LocationInput {
	if l == nil {
		return nil
	}
	return &batches.LocationInput{
		Name:      l.Name,
		Address:   l.Address,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
	}
}

type eventMetadataRequest struct {
	TemperatureCelsius *float64 `json:"temperatureCelsius,omitempty"`
	HumidityPercent    *float64 `json:"humidityPercent,omitempty" validate:"omitempty,min=0,max=100"`
	StorageConditions  *string  `json:"storageConditions,omitempty"`
	HandlingNotes      *string  `json:"handlingNotes,omitempty"`
}

func (m *eventMetadataRequest) toInput() *batches.EventMetadataInput {
	if m == nil {
		return nil
	}
	return &batches.EventMetadataInput{
		TemperatureCelsius: m.TemperatureCelsius,
		HumidityPercent:    m.HumidityPercent,
		StorageConditions:  m.StorageConditions,
		HandlingNotes:      m.HandlingNotes,
	}
}

type mediaRefsRequest struct {
	Images       []string `json:"images,omitempty"`
	Documents    []string `json:"documents,omitempty"`
	Videos       []string `json:"videos,omitempty"`
	Certificates []string `json:"certificates,omitempty"`
}

func (m *mediaRefsRequest) toInput() *batches.MediaRefsInput {
	if m == nil {
		return nil
	}
	return &batches.MediaRefsInput{
		Images:       m.Images,
		Documents:    m.Documents,
		Videos:       m.Videos,
		Certificates: m.Certificates,
	}
}

type registerBatchRequest struct {
	ProduceType   string            `json:"produceType" validate:"required"`
	Variety       *string           `json:"variety,omitempty"`
	Quantity      decimal.Decimal   `json:"quantity" validate:"required"`
	Unit          string            `json:"unit" validate:"required"`
	HarvestDate   time.Time         `json:"harvestDate" validate:"required"`
	PlantingDate  *time.Time        `json:"plantingDate,omitempty"`
	ShelfLifeDays *int              `json:"shelfLifeDays,omitempty" validate:"omitempty,min=1"`
	QualityGrade  string            `json:"qualityGrade" validate:"required"`
	FarmLocation  *locationRequest  `json:"farmLocation,omitempty"`
	IpfsHash      string            `json:"ipfsHash" validate:"required"`
	MediaRefs     *mediaRefsRequest `json:"mediaRefs,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
}

// RegisterBatch handles POST /api/v1/batches.
func RegisterBatch(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req registerBatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Register(r.Context(), actor, batches.RegisterInput{
			ProduceType:   req.ProduceType,
			Variety:       req.Variety,
			Quantity:      req.Quantity,
			Unit:          enums.Unit(req.Unit),
			HarvestDate:   req.HarvestDate,
			PlantingDate:  req.PlantingDate,
			ShelfLifeDays: req.ShelfLifeDays,
			QualityGrade:  enums.QualityGrade(req.QualityGrade),
			FarmLocation:  req.FarmLocation.toInput(),
			IpfsHash:      req.IpfsHash,
			MediaRefs:     req.MediaRefs.toInput(),
			Currency:      enums.Currency(req.Currency),
			Notes:         req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// GetBatch handles GET /api/v1/batches/{batchId}.
func GetBatch(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListBatches handles GET /api/v1/batches with filters and cursor pagination.
func ListBatches(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := batches.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseBatchStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			filter.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("produceType")); raw != "" {
			produceType := strings.ToLower(raw)
			filter.ProduceType = &produceType
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("farmerId")); raw != "" {
			farmerID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid farmer id"))
				return
			}
			filter.FarmerID = &farmerID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("recalled")); raw != "" {
			switch raw {
			case "true":
				flag := true
				filter.Recalled = &flag
			case "false":
				flag := false
				filter.Recalled = &flag
			default:
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "recalled must be true or false"))
				return
			}
		}

		page, err := svc.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type transitionRequest struct {
	Target   string                `json:"target" validate:"required"`
	Location *locationRequest      `json:"location,omitempty"`
	Metadata *eventMetadataRequest `json:"metadata,omitempty"`
	IpfsRef  *string               `json:"ipfsRef,omitempty"`
	Notes    *string               `json:"notes,omitempty"`
}

// TransitionBatch handles POST /api/v1/batches/{batchId}/transition.
func TransitionBatch(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Transition(r.Context(), actor, batchID, batches.TransitionInput{
			Target:   enums.BatchStatus(req.Target),
			Location: req.Location.toInput(),
			Metadata: req.Metadata.toInput(),
			IpfsRef:  req.IpfsRef,
			Notes:    req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type qualityParameterRequest struct {
	Name     string          `json:"name" validate:"required"`
	Value    decimal.Decimal `json:"value" validate:"required"`
	Unit     string          `json:"unit,omitempty"`
	Standard string          `json:"standard,omitempty"`
	Status   string          `json:"status,omitempty" validate:"omitempty,oneof=pass fail warning"`
}

type qualityCheckRequest struct {
	CheckType  string                    `json:"checkType" validate:"required"`
	Grade      string                    `json:"grade" validate:"required"`
	Score      decimal.Decimal           `json:"score" validate:"required"`
	Parameters []qualityParameterRequest `json:"parameters,omitempty" validate:"omitempty,dive"`
	Passed     bool                      `json:"passed"`
	Notes      *string                   `json:"notes,omitempty"`
	CheckedAt  *time.Time                `json:"checkedAt,omitempty"`
}

// AddQualityCheck handles POST /api/v1/batches/{batchId}/quality-checks.
func AddQualityCheck(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req qualityCheckRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := make([]batches.QualityParameterInput, 0, len(req.Parameters))
		for _, p := range req.Parameters {
			params = append(params, batches.QualityParameterInput{
				Name:     p.Name,
				Value:    p.Value,
				Unit:     p.Unit,
				Standard: p.Standard,
				Status:   p.Status,
			})
		}

		dto, err := svc.AddQualityCheck(r.Context(), actor, batchID, batches.QualityCheckInput{
			CheckType:  enums.QualityCheckType(req.CheckType),
			Grade:      enums.QualityGrade(req.Grade),
			Score:      req.Score,
			Parameters: params,
			Passed:     req.Passed,
			Notes:      req.Notes,
			CheckedAt:  req.CheckedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type certificationRequest struct {
	CertificateID   string     `json:"certificateId" validate:"required"`
	CertificateType string     `json:"certificateType" validate:"required"`
	Issuer          string     `json:"issuer" validate:"required"`
	IssueDate       time.Time  `json:"issueDate" validate:"required"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	DocumentURL     *string    `json:"documentUrl,omitempty" validate:"omitempty,url"`
}

// AddCertification handles POST /api/v1/batches/{batchId}/certifications.
func AddCertification(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req certificationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AddCertification(r.Context(), actor, batchID, batches.CertificationInput{
			CertificateID:   req.CertificateID,
			CertificateType: req.CertificateType,
			Issuer:          req.Issuer,
			IssueDate:       req.IssueDate,
			ExpiryDate:      req.ExpiryDate,
			DocumentURL:     req.DocumentURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type setPricingRequest struct {
	FarmGatePrice  decimal.Decimal  `json:"farmGatePrice" validate:"required"`
	WholesalePrice decimal.Decimal  `json:"wholesalePrice" validate:"required"`
	RetailPrice    decimal.Decimal  `json:"retailPrice" validate:"required"`
	TransportCost  *decimal.Decimal `json:"transportCost,omitempty"`
	Reason         *string          `json:"reason,omitempty"`
}

// SetBatchPricing handles POST /api/v1/batches/{batchId}/pricing.
func SetBatchPricing(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req setPricingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.SetPricing(r.Context(), actor, batchID, batches.SetPricingInput{
			FarmGatePrice:  req.FarmGatePrice,
			WholesalePrice: req.WholesalePrice,
			RetailPrice:    req.RetailPrice,
			TransportCost:  req.TransportCost,
			Reason:         req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type recallRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RecallBatch handles POST /api/v1/batches/{batchId}/recall.
func RecallBatch(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req recallRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Recall(r.Context(), actor, batchID, batches.RecallInput{Reason: req.Reason})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// BatchHistory handles GET /api/v1/batches/{batchId}/history.
func BatchHistory(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := validators.ParseBatchID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.History(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// BatchStatusSummary handles GET /api/v1/batches/status-summary.
func BatchStatusSummary(svc batches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.ActorFromContext(r.Context()); !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		summary, err := svc.StatusSummary(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

