package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/authz"
	"github.com/agritrace/agritrace-backend/pkg/anchor"
	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	pkgerrors "github.com/agritrace/agritrace-backend/pkg/errors"
)

type fairPriceRepository interface {
	FindByProduceType(ctx context.Context, produceType string) (*models.FairPriceRange, error)
	List(ctx context.Context) ([]models.FairPriceRange, error)
	UpsertWithTx(tx *gorm.DB, row *models.FairPriceRange) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type anchorEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event anchor.DomainEvent) error
}

// Service exposes fair price governance operations.
type Service interface {
	SetRange(ctx context.Context, actor authz.Actor, input SetRangeInput) (*RangeDTO, error)
	GetRange(ctx context.Context, produceType string) (*RangeDTO, error)
	ListRanges(ctx context.Context) ([]RangeDTO, error)
	CheckRetailPrice(ctx context.Context, produceType string, price decimal.Decimal) error
}

type service struct {
	repo   fairPriceRepository
	tx     txRunner
	anchor anchorEmitter
}

// NewService builds a pricing service with the provided collaborators.
func NewService(repo fairPriceRepository, tx txRunner, anchorSvc anchorEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fair price repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, anchor: anchorSvc}, nil
}

// SetRangeInput captures a fair price range assignment.
type SetRangeInput struct {
	ProduceType string
	MinPrice    decimal.Decimal
	MaxPrice    decimal.Decimal
	Currency    enums.Currency
}

// RangeDTO is the external view of a fair price range.
type RangeDTO struct {
	ProduceType string          `json:"produceType"`
	MinPrice    decimal.Decimal `json:"minPrice"`
	MaxPrice    decimal.Decimal `json:"maxPrice"`
	Currency    enums.Currency  `json:"currency"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ViolationDetails describes how a retail price falls outside the fair range.
type ViolationDetails struct {
	ProduceType string                       `json:"produceType"`
	Kind        enums.FairPriceViolationKind `json:"kind"`
	Price       decimal.Decimal              `json:"price"`
	Bound       decimal.Decimal              `json:"bound"`
}

func (s *service) SetRange(ctx context.Context, actor authz.Actor, input SetRangeInput) (*RangeDTO, error) {
	if !authz.CanManageFairPrices(actor.Role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot manage fair price ranges")
	}

	produceType := strings.TrimSpace(strings.ToLower(input.ProduceType))
	if produceType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce type is required")
	}
	if input.MinPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min price cannot be negative")
	}
	if input.MaxPrice.LessThan(input.MinPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max price must be at least min price")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}

	row := &models.FairPriceRange{
		ProduceType: produceType,
		MinPrice:    input.MinPrice,
		MaxPrice:    input.MaxPrice,
		Currency:    currency,
		SetByID:     actor.ID,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.UpsertWithTx(tx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert fair price range")
		}
		if s.anchor == nil {
			return nil
		}
		return s.anchor.Emit(ctx, tx, anchor.DomainEvent{
			EventType:     enums.EventFairPriceRangeSet,
			AggregateType: enums.AggregateFairPriceRange,
			AggregateID:   produceType,
			Actor:         &anchor.ActorRef{ActorID: actor.ID, Role: actor.Role.String()},
			Data: map[string]any{
				"produceType": produceType,
				"minPrice":    row.MinPrice,
				"maxPrice":    row.MaxPrice,
				"currency":    row.Currency,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	dto := toRangeDTO(row)
	return &dto, nil
}

func (s *service) GetRange(ctx context.Context, produceType string) (*RangeDTO, error) {
	produceType = strings.TrimSpace(strings.ToLower(produceType))
	if produceType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "produce type is required")
	}
	row, err := s.repo.FindByProduceType(ctx, produceType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fair price range not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fair price range")
	}
	dto := toRangeDTO(row)
	return &dto, nil
}

func (s *service) ListRanges(ctx context.Context) ([]RangeDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fair price ranges")
	}
	out := make([]RangeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toRangeDTO(&rows[i]))
	}
	return out, nil
}

// CheckRetailPrice returns nil when the produce type has no configured range.
func (s *service) CheckRetailPrice(ctx context.Context, produceType string, price decimal.Decimal) error {
	produceType = strings.TrimSpace(strings.ToLower(produceType))
	row, err := s.repo.FindByProduceType(ctx, produceType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fair price range")
	}

	if price.LessThan(row.MinPrice) {
		return pkgerrors.New(pkgerrors.CodeFairPrice, "retail price below fair floor").
			WithDetails(ViolationDetails{
				ProduceType: produceType,
				Kind:        enums.FairPriceViolationBelowFloor,
				Price:       price,
				Bound:       row.MinPrice,
			})
	}
	if price.GreaterThan(row.MaxPrice) {
		return pkgerrors.New(pkgerrors.CodeFairPrice, "retail price above fair ceiling").
			WithDetails(ViolationDetails{
				ProduceType: produceType,
				Kind:        enums.FairPriceViolationAboveCeiling,
				Price:       price,
				Bound:       row.MaxPrice,
			})
	}
	return nil
}

// ValidateMonotonic enforces farm gate <= wholesale <= retail for the prices
// that are present.
func ValidateMonotonic(farmGate, wholesale, retail *decimal.Decimal) error {
	if farmGate != nil && wholesale != nil && wholesale.LessThan(*farmGate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "wholesale price cannot be below farm gate price")
	}
	if wholesale != nil && retail != nil && retail.LessThan(*wholesale) {
		return pkgerrors.New(pkgerrors.CodeValidation, "retail price cannot be below wholesale price")
	}
	if farmGate != nil && retail != nil && retail.LessThan(*farmGate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "retail price cannot be below farm gate price")
	}
	return nil
}

func toRangeDTO(row *models.FairPriceRange) RangeDTO {
	return RangeDTO{
		ProduceType: row.ProduceType,
		MinPrice:    row.MinPrice,
		MaxPrice:    row.MaxPrice,
		Currency:    row.Currency,
		UpdatedAt:   row.UpdatedAt,
	}
}
