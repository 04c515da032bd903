package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// PriceHistoryEntry records one price assignment for a batch.
type PriceHistoryEntry struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID   int64           `gorm:"column:batch_id;not null;index"`
	PriceType enums.PriceType `gorm:"column:price_type;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency  enums.Currency  `gorm:"column:currency;not null"`
	SetByID   uuid.UUID       `gorm:"column:set_by_id;type:uuid;not null"`
	SetByRole enums.ActorRole `gorm:"column:set_by_role;not null"`
	Reason    string          `gorm:"column:reason;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
