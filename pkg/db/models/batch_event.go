package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/types"
)

// BatchEvent is one entry in a batch's append-only lifecycle log.
type BatchEvent struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID    int64                `gorm:"column:batch_id;not null;index"`
	EventType  enums.EventType      `gorm:"column:event_type;not null"`
	ActorID    uuid.UUID            `gorm:"column:actor_id;type:uuid;not null"`
	ActorName  string               `gorm:"column:actor_name;not null"`
	ActorRole  enums.ActorRole      `gorm:"column:actor_role;not null"`
	FromStatus *enums.BatchStatus   `gorm:"column:from_status"`
	ToStatus   *enums.BatchStatus   `gorm:"column:to_status"`
	Location   *types.Location      `gorm:"column:location;type:jsonb;serializer:json"`
	Metadata   *types.EventMetadata `gorm:"column:metadata;type:jsonb;serializer:json"`
	IpfsRef    *string              `gorm:"column:ipfs_ref"`
	Notes      *string              `gorm:"column:notes"`
	OccurredAt time.Time            `gorm:"column:occurred_at;not null;index"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
}
