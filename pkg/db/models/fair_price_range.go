package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// FairPriceRange bounds the retail price regulators consider fair for a
// produce type. One active range per produce type.
type FairPriceRange struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProduceType string          `gorm:"column:produce_type;not null;uniqueIndex"`
	MinPrice    decimal.Decimal `gorm:"column:min_price;type:numeric(12,2);not null"`
	MaxPrice    decimal.Decimal `gorm:"column:max_price;type:numeric(12,2);not null"`
	Currency    enums.Currency  `gorm:"column:currency;not null"`
	SetByID     uuid.UUID       `gorm:"column:set_by_id;type:uuid;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
