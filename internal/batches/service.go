package batches

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/authz"
	"github.com/agritrace/agritrace-backend/internal/pricing"
	"github.com/agritrace/agritrace-backend/pkg/anchor"
	dbpkg "github.com/agritrace/agritrace-backend/pkg/db"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
	"github.com/agritrace/agritrace-backend/pkg/pagination"
)

type batchRepository interface {
	CreateWithTx(tx *gorm.DB, batch *models.Batch) error
	FindByID(ctx context.Context, id int64) (*models.Batch, error)
	FindByIDWithTx(tx *gorm.DB, id int64) (*models.Batch, error)
	SaveGuardedWithTx(tx *gorm.DB, batch *models.Batch) error
	InsertEventWithTx(tx *gorm.DB, event *models.BatchEvent) error
	InsertQualityCheckWithTx(tx *gorm.DB, check *models.QualityCheck) error
	InsertPriceHistoryWithTx(tx *gorm.DB, entry *models.PriceHistoryEntry) error
	InsertCertificationWithTx(tx *gorm.DB, cert *models.Certification) error
	ComputeStatsWithTx(tx *gorm.DB, batchID int64) (*HistoryStats, error)
	List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Batch, error)
	ListEvents(ctx context.Context, batchID int64) ([]models.BatchEvent, error)
	ListQualityChecks(ctx context.Context, batchID int64) ([]models.QualityCheck, error)
	ListPriceHistory(ctx context.Context, batchID int64) ([]models.PriceHistoryEntry, error)
	ListCertifications(ctx context.Context, batchID int64) ([]models.Certification, error)
	StatusSummary(ctx context.Context) (map[enums.BatchStatus]int64, int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type anchorEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event anchor.DomainEvent) error
}

type fairPriceChecker interface {
	CheckRetailPrice(ctx context.Context, produceType string, price decimal.Decimal) error
}

// Service exposes batch lifecycle operations.
type Service interface {
	Register(ctx context.Context, actor authz.Actor, input RegisterInput) (*BatchDTO, error)
	Transition(ctx context.Context, actor authz.Actor, batchID int64, input TransitionInput) (*BatchDTO, error)
	AddQualityCheck(ctx context.Context, actor authz.Actor, batchID int64, input QualityCheckInput) (*QualityCheckDTO, error)
	AddCertification(ctx context.Context, actor authz.Actor, batchID int64, input CertificationInput) (*CertificationDTO, error)
	SetPricing(ctx context.Context, actor authz.Actor, batchID int64, input SetPricingInput) (*BatchDTO, error)
	Recall(ctx context.Context, actor authz.Actor, batchID int64, input RecallInput) (*BatchDTO, error)
	Get(ctx context.Context, batchID int64) (*BatchDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error)
	History(ctx context.Context, batchID int64) (*HistoryDTO, error)
	StatusSummary(ctx context.Context) (*StatusSummaryDTO, error)
}

type service struct {
	repo          batchRepository
	tx            txRunner
	anchor        anchorEmitter
	fairPrices    fairPriceChecker
	retryAttempts int
}

// NewService builds a batch service with the provided collaborators.
func NewService(repo batchRepository, tx txRunner, anchorSvc anchorEmitter, fairPrices fairPriceChecker, retryAttempts int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batch repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if fairPrices == nil {
		return nil, fmt.Errorf("fair price checker required")
	}
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	return &service{
		repo:          repo,
		tx:            tx,
		anchor:        anchorSvc,
		fairPrices:    fairPrices,
		retryAttempts: retryAttempts,
	}, nil
}

// RegisterInput captures a new harvest registration.
type RegisterInput struct {
	ProduceType   string
	Variety       *string
	Quantity      decimal.Decimal
	Unit          enums.Unit
	HarvestDate   time.Time
	PlantingDate  *time.Time
	ShelfLifeDays *int
	QualityGrade  enums.QualityGrade
	FarmLocation  *LocationInput
	IpfsHash      string
	MediaRefs     *MediaRefsInput
	Currency      enums.Currency
	Notes         *string
}

// MediaRefsInput mirrors types.MediaRefs for request payloads.
type MediaRefsInput struct {
	Images       []string
	Documents    []string
	Videos       []string
	Certificates []string
}

// LocationInput mirrors types.Location for request payloads.
type LocationInput struct {
	Name      string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

// TransitionInput captures a custody handoff.
type TransitionInput struct {
	Target   enums.BatchStatus
	Location *LocationInput
	Metadata *EventMetadataInput
	IpfsRef  *string
	Notes    *string
}

// EventMetadataInput carries optional handling conditions for an event.
type EventMetadataInput struct {
	TemperatureCelsius *float64
	HumidityPercent    *float64
	StorageConditions  *string
	HandlingNotes      *string
}

// QualityCheckInput captures one inspection.
type QualityCheckInput struct {
	CheckType  enums.QualityCheckType
	Grade      enums.QualityGrade
	Score      decimal.Decimal
	Parameters []QualityParameterInput
	Passed     bool
	Notes      *string
	CheckedAt  *time.Time
}

// QualityParameterInput is one measured parameter of an inspection.
type QualityParameterInput struct {
	Name     string
	Value    decimal.Decimal
	Unit     string
	Standard string
	Status   string
}

// CertificationInput captures an externally issued certificate.
type CertificationInput struct {
	CertificateID   string
	CertificateType string
	Issuer          string
	IssueDate       time.Time
	ExpiryDate      *time.Time
	DocumentURL     *string
}

// SetPricingInput captures the full price tuple for a batch. All three leg
// prices arrive together; transport cost defaults to zero when omitted.
type SetPricingInput struct {
	FarmGatePrice  decimal.Decimal
	WholesalePrice decimal.Decimal
	RetailPrice    decimal.Decimal
	TransportCost  *decimal.Decimal
	Reason         *string
}

// RecallInput captures a regulator-initiated recall.
type RecallInput struct {
	Reason string
}

func (s *service) Register(ctx context.Context, actor authz.Actor, input RegisterInput) (*BatchDTO, error) {
	if !authz.CanRegister(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot register batches")
	}

	produceType := strings.TrimSpace(strings.ToLower(input.ProduceType))
	if produceType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce type is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid unit %q", input.Unit))
	}
	if !input.QualityGrade.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quality grade %q", input.QualityGrade))
	}
	if input.HarvestDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "harvest date is required")
	}
	if input.HarvestDate.After(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "harvest date cannot be in the future")
	}
	if input.PlantingDate != nil && input.PlantingDate.After(input.HarvestDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planting date cannot follow harvest date")
	}
	if input.ShelfLifeDays != nil && *input.ShelfLifeDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shelf life must be a positive number of days")
	}
	ipfsHash := strings.TrimSpace(input.IpfsHash)
	if ipfsHash == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ipfs hash is required")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}

	batch := &models.Batch{
		FarmerID:         actor.ID,
		FarmerName:       actor.Name,
		ProduceType:      produceType,
		Variety:          input.Variety,
		Quantity:         input.Quantity,
		Unit:             input.Unit,
		HarvestDate:      input.HarvestDate,
		PlantingDate:     input.PlantingDate,
		ShelfLifeDays:    input.ShelfLifeDays,
		QualityGrade:     input.QualityGrade,
		FarmLocation:     input.FarmLocation.toLocation(),
		IpfsHash:         ipfsHash,
		MediaRefs:        input.MediaRefs.toMediaRefs(),
		Status:           enums.BatchStatusRegistered,
		CurrentOwnerID:   actor.ID,
		CurrentOwnerRole: actor.Role,
		Currency:         currency,
		IsActive:         true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateWithTx(tx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create batch")
		}

		now := time.Now()
		event := &models.BatchEvent{
			BatchID:    batch.ID,
			EventType:  enums.EventTypeRegistered,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			ActorRole:  actor.Role,
			ToStatus:   statusPtr(enums.BatchStatusRegistered),
			Location:   input.FarmLocation.toLocation(),
			Notes:      input.Notes,
			OccurredAt: now,
		}
		if err := s.repo.InsertEventWithTx(tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append registration event")
		}

		if err := s.applyStatsWithTx(tx, batch); err != nil {
			return err
		}

		return s.emit(ctx, tx, actor, enums.EventBatchRegistered, batch.ID, map[string]any{
			"produceType":  batch.ProduceType,
			"quantity":     batch.Quantity,
			"unit":         batch.Unit,
			"qualityGrade": batch.QualityGrade,
			"harvestDate":  batch.HarvestDate,
			"ipfsHash":     batch.IpfsHash,
		})
	})
	if err != nil {
		return nil, err
	}

	dto := toBatchDTO(batch)
	return &dto, nil
}

func (s *service) Transition(ctx context.Context, actor authz.Actor, batchID int64, input TransitionInput) (*BatchDTO, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target status %q", input.Target))
	}
	if !authz.CanTransition(actor.Role, input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot perform this transition").
			WithDetails(map[string]any{
				"target":       input.Target,
				"allowedRoles": authz.RolesAllowedFor(input.Target),
			})
	}

	var updated *models.Batch
	err := s.withLockRetry(ctx, func(tx *gorm.DB) error {
		batch, err := s.loadForUpdate(tx, batchID)
		if err != nil {
			return err
		}

		if batch.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "batch already reached a terminal state")
		}
		next, ok := batch.Status.Next()
		if !ok || next != input.Target {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transition does not follow the supply chain order").
				WithDetails(map[string]any{
					"currentStatus": batch.Status,
					"expectedNext":  next,
					"requested":     input.Target,
				})
		}

		fromStatus := batch.Status
		batch.Status = input.Target
		batch.CurrentOwnerID = actor.ID
		batch.CurrentOwnerRole = actor.Role

		now := time.Now()
		event := &models.BatchEvent{
			BatchID:    batch.ID,
			EventType:  enums.EventTypeForStatus(input.Target),
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			ActorRole:  actor.Role,
			FromStatus: statusPtr(fromStatus),
			ToStatus:   statusPtr(input.Target),
			Location:   input.Location.toLocation(),
			Metadata:   input.Metadata.toMetadata(),
			IpfsRef:    input.IpfsRef,
			Notes:      input.Notes,
			OccurredAt: now,
		}
		if err := s.repo.InsertEventWithTx(tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append transition event")
		}

		if err := s.applyStatsWithTx(tx, batch); err != nil {
			return err
		}

		if err := s.emit(ctx, tx, actor, enums.EventBatchStatusChanged, batch.ID, map[string]any{
			"fromStatus": fromStatus,
			"toStatus":   input.Target,
		}); err != nil {
			return err
		}

		updated = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toBatchDTO(updated)
	return &dto, nil
}

func (s *service) AddQualityCheck(ctx context.Context, actor authz.Actor, batchID int64, input QualityCheckInput) (*QualityCheckDTO, error) {
	if !authz.CanAddQualityCheck(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot add quality checks")
	}
	if !input.CheckType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid check type %q", input.CheckType))
	}
	if !input.Grade.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid quality grade %q", input.Grade))
	}
	if input.Score.IsNegative() || input.Score.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "score must be between 0 and 100")
	}

	checkedAt := time.Now()
	if input.CheckedAt != nil {
		checkedAt = *input.CheckedAt
	}

	var created *models.QualityCheck
	err := s.withLockRetry(ctx, func(tx *gorm.DB) error {
		batch, err := s.loadForUpdate(tx, batchID)
		if err != nil {
			return err
		}

		check := &models.QualityCheck{
			BatchID:       batch.ID,
			CheckType:     input.CheckType,
			InspectorID:   actor.ID,
			InspectorName: actor.Name,
			Grade:         input.Grade,
			Score:         input.Score,
			Parameters:    toQualityParameters(input.Parameters),
			Passed:        input.Passed,
			Notes:         input.Notes,
			CheckedAt:     checkedAt,
		}
		if err := s.repo.InsertQualityCheckWithTx(tx, check); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append quality check")
		}

		event := &models.BatchEvent{
			BatchID:    batch.ID,
			EventType:  enums.EventTypeQualityChecked,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			ActorRole:  actor.Role,
			Notes:      input.Notes,
			OccurredAt: checkedAt,
		}
		if err := s.repo.InsertEventWithTx(tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append quality event")
		}

		if err := s.applyStatsWithTx(tx, batch); err != nil {
			return err
		}

		created = check
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toQualityCheckDTO(created)
	return &dto, nil
}

func (s *service) AddCertification(ctx context.Context, actor authz.Actor, batchID int64, input CertificationInput) (*CertificationDTO, error) {
	if !authz.CanAddCertification(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot add certifications")
	}
	certificateID := strings.TrimSpace(input.CertificateID)
	if certificateID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "certificate id is required")
	}
	if strings.TrimSpace(input.CertificateType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "certificate type is required")
	}
	if strings.TrimSpace(input.Issuer) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issuer is required")
	}
	if input.IssueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "issue date is required")
	}
	if input.ExpiryDate != nil && input.ExpiryDate.Before(input.IssueDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry date cannot precede issue date")
	}

	var created *models.Certification
	err := s.withLockRetry(ctx, func(tx *gorm.DB) error {
		batch, err := s.loadForUpdate(tx, batchID)
		if err != nil {
			return err
		}

		cert := &models.Certification{
			CertificateID:   certificateID,
			BatchID:         batch.ID,
			CertificateType: input.CertificateType,
			Issuer:          input.Issuer,
			IssueDate:       input.IssueDate,
			ExpiryDate:      input.ExpiryDate,
			DocumentURL:     input.DocumentURL,
			AddedByID:       actor.ID,
		}
		if err := s.repo.InsertCertificationWithTx(tx, cert); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_certifications_certificate_id") {
				return pkgerrors.New(pkgerrors.CodeConflict, "certificate id already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach certification")
		}

		event := &models.BatchEvent{
			BatchID:    batch.ID,
			EventType:  enums.EventTypeCertificationAdded,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			ActorRole:  actor.Role,
			OccurredAt: time.Now(),
		}
		if err := s.repo.InsertEventWithTx(tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append certification event")
		}

		if err := s.applyStatsWithTx(tx, batch); err != nil {
			return err
		}

		created = cert
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toCertificationDTO(created)
	return &dto, nil
}

func (s *service) SetPricing(ctx context.Context, actor authz.Actor, batchID int64, input SetPricingInput) (*BatchDTO, error) {
	if !authz.CanSetPrice(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot set pricing")
	}
	if !input.FarmGatePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farm gate price must be positive")
	}
	if !input.WholesalePrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wholesale price must be positive")
	}
	if !input.RetailPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retail price must be positive")
	}
	transportCost := decimal.Zero
	if input.TransportCost != nil {
		if input.TransportCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "transport cost cannot be negative")
		}
		transportCost = *input.TransportCost
	}
	farmGate, wholesale, retail := input.FarmGatePrice, input.WholesalePrice, input.RetailPrice
	if err := pricing.ValidateMonotonic(&farmGate, &wholesale, &retail); err != nil {
		return nil, err
	}
	margin := retail.Sub(farmGate)

	reason := fmt.Sprintf("price set by %s", actor.Role)
	if input.Reason != nil && strings.TrimSpace(*input.Reason) != "" {
		reason = strings.TrimSpace(*input.Reason)
	}

	var updated *models.Batch
	err := s.withLockRetry(ctx, func(tx *gorm.DB) error {
		batch, err := s.loadForUpdate(tx, batchID)
		if err != nil {
			return err
		}

		if err := s.fairPrices.CheckRetailPrice(ctx, batch.ProduceType, retail); err != nil {
			return err
		}

		batch.FarmGatePrice = &farmGate
		batch.WholesalePrice = &wholesale
		batch.RetailPrice = &retail
		batch.TransportCost = &transportCost
		batch.Margin = &margin

		// The history log tracks the consumer-facing price, one retail
		// entry per pricing call.
		entry := &models.PriceHistoryEntry{
			BatchID:   batch.ID,
			PriceType: enums.PriceTypeRetail,
			Price:     retail,
			Currency:  batch.Currency,
			SetByID:   actor.ID,
			SetByRole: actor.Role,
			Reason:    reason,
		}
		if err := s.repo.InsertPriceHistoryWithTx(tx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append price history")
		}

		event := &models.BatchEvent{
			BatchID:    batch.ID,
			EventType:  enums.EventTypePriceSet,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			ActorRole:  actor.Role,
			OccurredAt: time.Now(),
		}
		if err := s.repo.InsertEventWithTx(tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append pricing event")
		}

		if err := s.applyStatsWithTx(tx, batch); err != nil {
			return err
		}

		if err := s.emit(ctx, tx, actor, enums.EventBatchPricingSet, batch.ID, map[string]any{
			"farmGatePrice":  farmGate,
			"wholesalePrice": wholesale,
			"retailPrice":    retail,
			"transportCost":  transportCost,
			"margin":         margin,
			"currency":       batch.Currency,
		}); err != nil {
			return err
		}

		updated = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toBatchDTO(updated)
	return &dto, nil
}

func (s *service) Recall(ctx context.Context, actor authz.Actor, batchID int64, input RecallInput) (*BatchDTO, error) {
	if !authz.CanRecall(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot recall batches")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recall reason is required")
	}

	var updated *models.Batch
	err := s.withLockRetry(ctx, func(tx *gorm.DB) error {
		batch, err := s.loadForUpdate(tx, batchID)
		if err != nil {
			return err
		}
		// Recall deactivates the batch for good. Reads still work, but
		// every later mutation sees it as missing.
		batch.IsRecalled = true
		batch.IsActive = false
		batch.RecallReason = &reason

		now := time.Now()
		event := &models.BatchEvent{
			BatchID:    batch.ID,
			EventType:  enums.EventTypeRecalled,
			ActorID:    actor.ID,
			ActorName:  actor.Name,
			ActorRole:  actor.Role,
			Notes:      &reason,
			OccurredAt: now,
		}
		if err := s.repo.InsertEventWithTx(tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append recall event")
		}

		if err := s.applyStatsWithTx(tx, batch); err != nil {
			return err
		}

		if err := s.emit(ctx, tx, actor, enums.EventBatchRecalled, batch.ID, map[string]any{
			"reason": reason,
		}); err != nil {
			return err
		}

		updated = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := toBatchDTO(updated)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, batchID int64) (*BatchDTO, error) {
	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	dto := toBatchDTO(batch)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, filter, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list batches")
	}

	page := &Page{Items: make([]BatchDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			break
		}
		page.Items = append(page.Items, toBatchDTO(&rows[i]))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		page.NextCursor = &next
	}
	return page, nil
}

func (s *service) History(ctx context.Context, batchID int64) (*HistoryDTO, error) {
	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}

	events, err := s.repo.ListEvents(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	checks, err := s.repo.ListQualityChecks(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quality checks")
	}
	prices, err := s.repo.ListPriceHistory(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list price history")
	}
	certs, err := s.repo.ListCertifications(ctx, batchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list certifications")
	}

	history := &HistoryDTO{
		Batch:          toBatchDTO(batch),
		Events:         make([]EventDTO, 0, len(events)),
		QualityChecks:  make([]QualityCheckDTO, 0, len(checks)),
		PriceHistory:   make([]PriceHistoryDTO, 0, len(prices)),
		Certifications: make([]CertificationDTO, 0, len(certs)),
	}
	for i := range events {
		history.Events = append(history.Events, toEventDTO(&events[i]))
	}
	for i := range checks {
		history.QualityChecks = append(history.QualityChecks, toQualityCheckDTO(&checks[i]))
	}
	for i := range prices {
		history.PriceHistory = append(history.PriceHistory, toPriceHistoryDTO(&prices[i]))
	}
	for i := range certs {
		history.Certifications = append(history.Certifications, toCertificationDTO(&certs[i]))
	}
	return history, nil
}

func (s *service) StatusSummary(ctx context.Context) (*StatusSummaryDTO, error) {
	byStatus, recalled, err := s.repo.StatusSummary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "status summary")
	}
	summary := &StatusSummaryDTO{
		ByStatus: byStatus,
		Recalled: recalled,
	}
	for _, count := range byStatus {
		summary.Total += count
	}
	return summary, nil
}

// withLockRetry runs fn in a transaction and retries from a fresh load when a
// guarded save loses the optimistic lock race. A loser whose state check now
// fails surfaces that state error instead of retrying forever.
func (s *service) withLockRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		err = s.tx.WithTx(ctx, fn)
		if !errors.Is(err, ErrLockConflict) {
			return err
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "batch write kept losing concurrent updates")
}

// loadForUpdate fetches the batch inside tx. Deactivated batches are
// indistinguishable from missing ones for mutation purposes.
func (s *service) loadForUpdate(tx *gorm.DB, batchID int64) (*models.Batch, error) {
	batch, err := s.repo.FindByIDWithTx(tx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	if !batch.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
	}
	return batch, nil
}

// applyStatsWithTx recomputes the log counters and saves the batch under its
// optimistic lock.
func (s *service) applyStatsWithTx(tx *gorm.DB, batch *models.Batch) error {
	stats, err := s.repo.ComputeStatsWithTx(tx, batch.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute stats")
	}
	batch.EventCount = stats.EventCount
	batch.QualityCheckCount = stats.QualityCheckCount
	batch.AvgQualityScore = stats.AvgQualityScore
	batch.LastEventAt = stats.LastEventAt

	if err := s.repo.SaveGuardedWithTx(tx, batch); err != nil {
		if errors.Is(err, ErrLockConflict) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save batch")
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, actor authz.Actor, eventType enums.AnchorEventType, batchID int64, data map[string]any) error {
	if s.anchor == nil {
		return nil
	}
	return s.anchor.Emit(ctx, tx, anchor.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateBatch,
		AggregateID:   strconv.FormatInt(batchID, 10),
		Actor:         &anchor.ActorRef{ActorID: actor.ID, Role: actor.Role.String()},
		Data:          data,
		Version:       1,
	})
}

func statusPtr(status enums.BatchStatus) *enums.BatchStatus {
	return &status
}
