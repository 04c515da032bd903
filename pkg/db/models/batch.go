package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/types"
)

// Batch is the canonical produce batch record. All lifecycle history hangs
// off it via append-only child tables; the denormalized stats columns are
// recomputed inside the same transaction that appends to those tables.
type Batch struct {
	ID            int64              `gorm:"column:id;primaryKey;autoIncrement"`
	FarmerID      uuid.UUID          `gorm:"column:farmer_id;type:uuid;not null"`
	FarmerName    string             `gorm:"column:farmer_name;not null"`
	ProduceType   string             `gorm:"column:produce_type;not null;index"`
	Variety       *string            `gorm:"column:variety"`
	Quantity      decimal.Decimal    `gorm:"column:quantity;type:numeric(14,3);not null"`
	Unit          enums.Unit         `gorm:"column:unit;not null"`
	HarvestDate   time.Time          `gorm:"column:harvest_date;not null"`
	PlantingDate  *time.Time         `gorm:"column:planting_date"`
	ShelfLifeDays *int               `gorm:"column:shelf_life_days"`
	QualityGrade  enums.QualityGrade `gorm:"column:quality_grade;not null"`
	FarmLocation  *types.Location    `gorm:"column:farm_location;type:jsonb;serializer:json"`

	// IpfsHash anchors the registration payload off-chain; it is required
	// at registration and immutable afterwards.
	IpfsHash  string           `gorm:"column:ipfs_hash;not null"`
	MediaRefs *types.MediaRefs `gorm:"column:media_refs;type:jsonb;serializer:json"`

	Status           enums.BatchStatus `gorm:"column:status;not null;index"`
	CurrentOwnerID   uuid.UUID         `gorm:"column:current_owner_id;type:uuid;not null"`
	CurrentOwnerRole enums.ActorRole   `gorm:"column:current_owner_role;not null"`

	FarmGatePrice  *decimal.Decimal `gorm:"column:farm_gate_price;type:numeric(12,2)"`
	WholesalePrice *decimal.Decimal `gorm:"column:wholesale_price;type:numeric(12,2)"`
	RetailPrice    *decimal.Decimal `gorm:"column:retail_price;type:numeric(12,2)"`
	TransportCost  *decimal.Decimal `gorm:"column:transport_cost;type:numeric(12,2)"`
	Margin         *decimal.Decimal `gorm:"column:margin;type:numeric(12,2)"`
	Currency       enums.Currency   `gorm:"column:currency;not null;default:USD"`

	// IsActive flips to false on recall and never back. Inactive batches
	// stay readable but reject every mutation as if they did not exist.
	IsActive     bool    `gorm:"column:is_active;not null;default:true"`
	IsVerified   bool    `gorm:"column:is_verified;not null;default:false"`
	IsRecalled   bool    `gorm:"column:is_recalled;not null;default:false"`
	RecallReason *string `gorm:"column:recall_reason"`

	EventCount        int              `gorm:"column:event_count;not null;default:0"`
	QualityCheckCount int              `gorm:"column:quality_check_count;not null;default:0"`
	AvgQualityScore   *decimal.Decimal `gorm:"column:avg_quality_score;type:numeric(5,2)"`
	LastEventAt       *time.Time       `gorm:"column:last_event_at"`

	// LockVersion backs optimistic concurrency: every batch write bumps it
	// and must match the value it was loaded with.
	LockVersion int `gorm:"column:lock_version;not null;default:0"`

	Events         []BatchEvent        `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
	QualityChecks  []QualityCheck      `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
	PriceHistory   []PriceHistoryEntry `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
	Certifications []Certification     `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
