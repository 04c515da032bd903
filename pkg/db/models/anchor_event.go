package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/agritrace/agritrace-backend/pkg/enums"
)

// AnchorEvent is a ledger-mirror row staged in the same transaction as the
// state change it describes, then published asynchronously.
type AnchorEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.AnchorEventType     `gorm:"column:event_type;not null"`
	AggregateType enums.AnchorAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   string                    `gorm:"column:aggregate_id;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
	PublishedAt   *time.Time                `gorm:"column:published_at"`
	AttemptCount  int                       `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string                   `gorm:"column:last_error"`
}
