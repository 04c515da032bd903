package batches

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/types"
)

// BatchDTO is the external view of a batch.
type BatchDTO struct {
	ID               int64              `json:"id"`
	FarmerID         uuid.UUID          `json:"farmerId"`
	FarmerName       string             `json:"farmerName"`
	ProduceType      string             `json:"produceType"`
	Variety          *string            `json:"variety,omitempty"`
	Quantity         decimal.Decimal    `json:"quantity"`
	Unit             enums.Unit         `json:"unit"`
	HarvestDate      time.Time          `json:"harvestDate"`
	PlantingDate     *time.Time         `json:"plantingDate,omitempty"`
	ShelfLifeDays    *int               `json:"shelfLifeDays,omitempty"`
	QualityGrade     enums.QualityGrade `json:"qualityGrade"`
	FarmLocation     *types.Location    `json:"farmLocation,omitempty"`
	IpfsHash         string             `json:"ipfsHash"`
	MediaRefs        *types.MediaRefs   `json:"mediaRefs,omitempty"`
	Status           enums.BatchStatus  `json:"status"`
	CurrentOwnerID   uuid.UUID          `json:"currentOwnerId"`
	CurrentOwnerRole enums.ActorRole    `json:"currentOwnerRole"`
	FarmGatePrice    *decimal.Decimal   `json:"farmGatePrice,omitempty"`
	WholesalePrice   *decimal.Decimal   `json:"wholesalePrice,omitempty"`
	RetailPrice      *decimal.Decimal   `json:"retailPrice,omitempty"`
	TransportCost    *decimal.Decimal   `json:"transportCost,omitempty"`
	Margin           *decimal.Decimal   `json:"margin,omitempty"`
	Currency         enums.Currency     `json:"currency"`
	IsActive         bool               `json:"isActive"`
	IsVerified       bool               `json:"isVerified"`
	IsRecalled       bool               `json:"isRecalled"`
	RecallReason     *string            `json:"recallReason,omitempty"`
	Stats            BatchStatsDTO      `json:"stats"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// BatchStatsDTO carries the denormalized history counters.
type BatchStatsDTO struct {
	EventCount        int              `json:"eventCount"`
	QualityCheckCount int              `json:"qualityCheckCount"`
	AvgQualityScore   *decimal.Decimal `json:"avgQualityScore,omitempty"`
	LastEventAt       *time.Time       `json:"lastEventAt,omitempty"`
}

// EventDTO is the external view of one lifecycle event.
type EventDTO struct {
	ID         uuid.UUID            `json:"id"`
	BatchID    int64                `json:"batchId"`
	EventType  enums.EventType      `json:"eventType"`
	ActorID    uuid.UUID            `json:"actorId"`
	ActorName  string               `json:"actorName"`
	ActorRole  enums.ActorRole      `json:"actorRole"`
	FromStatus *enums.BatchStatus   `json:"fromStatus,omitempty"`
	ToStatus   *enums.BatchStatus   `json:"toStatus,omitempty"`
	Location   *types.Location      `json:"location,omitempty"`
	Metadata   *types.EventMetadata `json:"metadata,omitempty"`
	IpfsRef    *string              `json:"ipfsRef,omitempty"`
	Notes      *string              `json:"notes,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// QualityCheckDTO is the external view of one quality log entry.
type QualityCheckDTO struct {
	ID            uuid.UUID               `json:"id"`
	BatchID       int64                   `json:"batchId"`
	CheckType     enums.QualityCheckType  `json:"checkType"`
	InspectorID   uuid.UUID               `json:"inspectorId"`
	InspectorName string                  `json:"inspectorName"`
	Grade         enums.QualityGrade      `json:"grade"`
	Score         decimal.Decimal         `json:"score"`
	Parameters    types.QualityParameters `json:"parameters,omitempty"`
	Passed        bool                    `json:"passed"`
	Notes         *string                 `json:"notes,omitempty"`
	CheckedAt     time.Time               `json:"checkedAt"`
}

// CertificationDTO is the external view of an attached certificate.
type CertificationDTO struct {
	ID              uuid.UUID  `json:"id"`
	CertificateID   string     `json:"certificateId"`
	BatchID         int64      `json:"batchId"`
	CertificateType string     `json:"certificateType"`
	Issuer          string     `json:"issuer"`
	IssueDate       time.Time  `json:"issueDate"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty"`
	DocumentURL     *string    `json:"documentUrl,omitempty"`
}

// PriceHistoryDTO is the external view of one price assignment.
type PriceHistoryDTO struct {
	ID        uuid.UUID       `json:"id"`
	BatchID   int64           `json:"batchId"`
	PriceType enums.PriceType `json:"priceType"`
	Price     decimal.Decimal `json:"price"`
	Currency  enums.Currency  `json:"currency"`
	SetByID   uuid.UUID       `json:"setById"`
	SetByRole enums.ActorRole `json:"setByRole"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"createdAt"`
}

// HistoryDTO bundles every log a batch carries.
type HistoryDTO struct {
	Batch          BatchDTO           `json:"batch"`
	Events         []EventDTO         `json:"events"`
	QualityChecks  []QualityCheckDTO  `json:"qualityChecks"`
	PriceHistory   []PriceHistoryDTO  `json:"priceHistory"`
	Certifications []CertificationDTO `json:"certifications"`
}

// Page is one cursor page of batches.
type Page struct {
	Items      []BatchDTO `json:"items"`
	NextCursor *string    `json:"nextCursor,omitempty"`
}

// StatusSummaryDTO aggregates batch counts for dashboards.
type StatusSummaryDTO struct {
	Total    int64                       `json:"total"`
	ByStatus map[enums.BatchStatus]int64 `json:"byStatus"`
	Recalled int64                       `json:"recalled"`
}

func toBatchDTO(b *models.Batch) BatchDTO {
	return BatchDTO{
		ID:               b.ID,
		FarmerID:         b.FarmerID,
		FarmerName:       b.FarmerName,
		ProduceType:      b.ProduceType,
		Variety:          b.Variety,
		Quantity:         b.Quantity,
		Unit:             b.Unit,
		HarvestDate:      b.HarvestDate,
		PlantingDate:     b.PlantingDate,
		ShelfLifeDays:    b.ShelfLifeDays,
		QualityGrade:     b.QualityGrade,
		FarmLocation:     b.FarmLocation,
		IpfsHash:         b.IpfsHash,
		MediaRefs:        b.MediaRefs,
		Status:           b.Status,
		CurrentOwnerID:   b.CurrentOwnerID,
		CurrentOwnerRole: b.CurrentOwnerRole,
		FarmGatePrice:    b.FarmGatePrice,
		WholesalePrice:   b.WholesalePrice,
		RetailPrice:      b.RetailPrice,
		TransportCost:    b.TransportCost,
		Margin:           b.Margin,
		Currency:         b.Currency,
		IsActive:         b.IsActive,
		IsVerified:       b.IsVerified,
		IsRecalled:       b.IsRecalled,
		RecallReason:     b.RecallReason,
		Stats: BatchStatsDTO{
			EventCount:        b.EventCount,
			QualityCheckCount: b.QualityCheckCount,
			AvgQualityScore:   b.AvgQualityScore,
			LastEventAt:       b.LastEventAt,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toEventDTO(e *models.BatchEvent) EventDTO {
	return EventDTO{
		ID:         e.ID,
		BatchID:    e.BatchID,
		EventType:  e.EventType,
		ActorID:    e.ActorID,
		ActorName:  e.ActorName,
		ActorRole:  e.ActorRole,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		Location:   e.Location,
		Metadata:   e.Metadata,
		IpfsRef:    e.IpfsRef,
		Notes:      e.Notes,
		OccurredAt: e.OccurredAt,
	}
}

func toQualityCheckDTO(q *models.QualityCheck) QualityCheckDTO {
	return QualityCheckDTO{
		ID:            q.ID,
		BatchID:       q.BatchID,
		CheckType:     q.CheckType,
		InspectorID:   q.InspectorID,
		InspectorName: q.InspectorName,
		Grade:         q.Grade,
		Score:         q.Score,
		Parameters:    q.Parameters,
		Passed:        q.Passed,
		Notes:         q.Notes,
		CheckedAt:     q.CheckedAt,
	}
}

func toCertificationDTO(c *models.Certification) CertificationDTO {
	return CertificationDTO{
		ID:              c.ID,
		CertificateID:   c.CertificateID,
		BatchID:         c.BatchID,
		CertificateType: c.CertificateType,
		Issuer:          c.Issuer,
		IssueDate:       c.IssueDate,
		ExpiryDate:      c.ExpiryDate,
		DocumentURL:     c.DocumentURL,
	}
}

func toPriceHistoryDTO(p *models.PriceHistoryEntry) PriceHistoryDTO {
	return PriceHistoryDTO{
		ID:        p.ID,
		BatchID:   p.BatchID,
		PriceType: p.PriceType,
		Price:     p.Price,
		Currency:  p.Currency,
		SetByID:   p.SetByID,
		SetByRole: p.SetByRole,
		Reason:    p.Reason,
		CreatedAt: p.CreatedAt,
	}
}
