package models

import (
	"time"

	"github.com/google/uuid"
)

// Certification links an externally issued certificate to a batch.
type Certification struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CertificateID   string     `gorm:"column:certificate_id;not null;uniqueIndex"`
	BatchID         int64      `gorm:"column:batch_id;not null;index"`
	CertificateType string     `gorm:"column:certificate_type;not null"`
	Issuer          string     `gorm:"column:issuer;not null"`
	IssueDate       time.Time  `gorm:"column:issue_date;not null"`
	ExpiryDate      *time.Time `gorm:"column:expiry_date"`
	DocumentURL     *string    `gorm:"column:document_url"`
	AddedByID       uuid.UUID  `gorm:"column:added_by_id;type:uuid;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
}
