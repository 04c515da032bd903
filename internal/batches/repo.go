package batches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
	"github.com/agritrace/agritrace-backend/pkg/enums"
	"github.com/agritrace/agritrace-backend/pkg/pagination"
)

// ErrLockConflict is returned when a guarded save loses an optimistic lock race.
var ErrLockConflict = errors.New("batch was modified concurrently")

// ListFilter narrows batch listings.
type ListFilter struct {
	Status      *enums.BatchStatus
	ProduceType *string
	FarmerID    *uuid.UUID
	Recalled    *bool
}

// Repository handles batch persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to batch operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithTx persists a new batch row in the provided transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, batch *models.Batch) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if batch == nil {
		return fmt.Errorf("batch is required")
	}
	return tx.Create(batch).Error
}

// FindByID loads a batch by its id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// FindByIDWithTx loads a batch using the provided transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id int64) (*models.Batch, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}
	var batch models.Batch
	if err := tx.Where("id = ?", id).First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// SaveGuardedWithTx persists the batch only if its lock_version still matches
// the version it was loaded with, bumping the version on success. Returns
// ErrLockConflict when another writer got there first.
func (r *Repository) SaveGuardedWithTx(tx *gorm.DB, batch *models.Batch) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if batch == nil {
		return fmt.Errorf("batch is required")
	}

	loadedVersion := batch.LockVersion
	batch.LockVersion = loadedVersion + 1
	result := tx.Model(&models.Batch{}).
		Where("id = ? AND lock_version = ?", batch.ID, loadedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(batch)
	if result.Error != nil {
		batch.LockVersion = loadedVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		batch.LockVersion = loadedVersion
		return ErrLockConflict
	}
	return nil
}

// InsertEventWithTx appends a lifecycle event.
func (r *Repository) InsertEventWithTx(tx *gorm.DB, event *models.BatchEvent) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return tx.Create(event).Error
}

// InsertQualityCheckWithTx appends a quality log entry.
func (r *Repository) InsertQualityCheckWithTx(tx *gorm.DB, check *models.QualityCheck) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if check.ID == uuid.Nil {
		check.ID = uuid.New()
	}
	return tx.Create(check).Error
}

// InsertPriceHistoryWithTx appends a price history entry.
func (r *Repository) InsertPriceHistoryWithTx(tx *gorm.DB, entry *models.PriceHistoryEntry) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return tx.Create(entry).Error
}

// InsertCertificationWithTx attaches a certificate to the batch.
func (r *Repository) InsertCertificationWithTx(tx *gorm.DB, cert *models.Certification) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	return tx.Create(cert).Error
}

// HistoryStats is the recomputed view of a batch's log counters.
type HistoryStats struct {
	EventCount        int
	QualityCheckCount int
	AvgQualityScore   *decimal.Decimal
	LastEventAt       *time.Time
}

// ComputeStatsWithTx derives the stats counters from the log tables inside
// the transaction, so they are consistent with the rows just appended.
func (r *Repository) ComputeStatsWithTx(tx *gorm.DB, batchID int64) (*HistoryStats, error) {
	if tx == nil {
		return nil, gorm.ErrInvalidTransaction
	}

	stats := &HistoryStats{}

	var eventCount int64
	if err := tx.Model(&models.BatchEvent{}).Where("batch_id = ?", batchID).Count(&eventCount).Error; err != nil {
		return nil, err
	}
	stats.EventCount = int(eventCount)

	var lastEvent models.BatchEvent
	err := tx.Where("batch_id = ?", batchID).Order("occurred_at DESC").First(&lastEvent).Error
	if err == nil {
		occurred := lastEvent.OccurredAt
		stats.LastEventAt = &occurred
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var qualityCount int64
	if err := tx.Model(&models.QualityCheck{}).Where("batch_id = ?", batchID).Count(&qualityCount).Error; err != nil {
		return nil, err
	}
	stats.QualityCheckCount = int(qualityCount)

	if qualityCount > 0 {
		var avg *float64
		row := tx.Model(&models.QualityCheck{}).
			Where("batch_id = ?", batchID).
			Select("AVG(score)").
			Row()
		if err := row.Scan(&avg); err != nil {
			return nil, err
		}
		if avg != nil {
			rounded := decimal.NewFromFloat(*avg).Round(2)
			stats.AvgQualityScore = &rounded
		}
	}

	return stats, nil
}

// List returns one cursor page of batches ordered newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter, limit int, cursor *pagination.Cursor) ([]models.Batch, error) {
	query := r.db.WithContext(ctx).Model(&models.Batch{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ProduceType != nil {
		query = query.Where("produce_type = ?", *filter.ProduceType)
	}
	if filter.FarmerID != nil {
		query = query.Where("farmer_id = ?", *filter.FarmerID)
	}
	if filter.Recalled != nil {
		query = query.Where("is_recalled = ?", *filter.Recalled)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Batch
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListEvents returns the batch's lifecycle log in order of occurrence.
func (r *Repository) ListEvents(ctx context.Context, batchID int64) ([]models.BatchEvent, error) {
	var rows []models.BatchEvent
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("occurred_at ASC").
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListQualityChecks returns the batch's quality log in order of inspection.
func (r *Repository) ListQualityChecks(ctx context.Context, batchID int64) ([]models.QualityCheck, error) {
	var rows []models.QualityCheck
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("checked_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListPriceHistory returns the batch's price assignments oldest first.
func (r *Repository) ListPriceHistory(ctx context.Context, batchID int64) ([]models.PriceHistoryEntry, error) {
	var rows []models.PriceHistoryEntry
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// ListCertifications returns the batch's certificates oldest first.
func (r *Repository) ListCertifications(ctx context.Context, batchID int64) ([]models.Certification, error) {
	var rows []models.Certification
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindCertificationsExpiringBetween returns certificates whose expiry falls
// inside [start, end), ordered by expiry. Certificates without an expiry
// never match.
func (r *Repository) FindCertificationsExpiringBetween(ctx context.Context, start, end time.Time) ([]models.Certification, error) {
	var rows []models.Certification
	err := r.db.WithContext(ctx).
		Where("expiry_date >= ? AND expiry_date < ?", start, end).
		Order("expiry_date ASC").
		Find(&rows).Error
	return rows, err
}

// FindCertificationByCertificateID loads a certificate by its external id.
func (r *Repository) FindCertificationByCertificateID(ctx context.Context, certificateID string) (*models.Certification, error) {
	var cert models.Certification
	if err := r.db.WithContext(ctx).
		Where("certificate_id = ?", certificateID).
		First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

// StatusSummary aggregates batch counts per status plus the recalled total.
func (r *Repository) StatusSummary(ctx context.Context) (map[enums.BatchStatus]int64, int64, error) {
	type statusCount struct {
		Status enums.BatchStatus
		Count  int64
	}
	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, 0, err
	}

	byStatus := make(map[enums.BatchStatus]int64, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	var recalled int64
	if err := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("is_recalled = ?", true).
		Count(&recalled).Error; err != nil {
		return nil, 0, err
	}

	return byStatus, recalled, nil
}
