package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/types"
)

// QualityCheck is one entry in a batch's append-only quality log.
type QualityCheck struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID       int64                   `gorm:"column:batch_id;not null;index"`
	CheckType     enums.QualityCheckType  `gorm:"column:check_type;not null"`
	InspectorID   uuid.UUID               `gorm:"column:inspector_id;type:uuid;not null"`
	InspectorName string                  `gorm:"column:inspector_name;not null"`
	Grade         enums.QualityGrade      `gorm:"column:grade;not null"`
	Score         decimal.Decimal         `gorm:"column:score;type:numeric(5,2);not null"`
	Parameters    types.QualityParameters `gorm:"column:parameters;type:jsonb;serializer:json"`
	Passed        bool                    `gorm:"column:passed;not null"`
	Notes         *string                 `gorm:"column:notes"`
	CheckedAt     time.Time               `gorm:"column:checked_at;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
