package pricing

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agritrace/agritrace-backend/pkg/db/models"
)

// Repository handles fair price range persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to fair price operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByProduceType loads the active range for a produce type.
func (r *Repository) FindByProduceType(ctx context.Context, produceType string) (*models.FairPriceRange, error) {
	var row models.FairPriceRange
	if err := r.db.WithContext(ctx).
		Where("produce_type = ?", produceType).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns every configured range ordered by produce type.
func (r *Repository) List(ctx context.Context) ([]models.FairPriceRange, error) {
	var rows []models.FairPriceRange
	err := r.db.WithContext(ctx).Order("produce_type ASC").Find(&rows).Error
	return rows, err
}

// UpsertWithTx writes the range, replacing any previous one for the same
// produce type.
func (r *Repository) UpsertWithTx(tx *gorm.DB, row *models.FairPriceRange) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if row == nil {
		return errors.New("fair price range is required")
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "produce_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"min_price", "max_price", "currency", "set_by_id", "updated_at",
		}),
	}).Create(row).Error
}
