package repository

import (
	"context"
	"errors"

	"github.com/encukou/prekapavac/internal/models"

	"gorm.io/gorm"
)

// OutlinkRepository defines persistence operations for category outlinks.
type OutlinkRepository interface {
	Create(ctx context.Context, outlink *models.Outlink) error
	ListByCategory(ctx context.Context, categoryID uint, typ models.OutlinkType) ([]models.Outlink, error)
	// Icon returns the category's icon outlink, or nil when it has none.
	Icon(ctx context.Context, categoryID uint) (*models.Outlink, error)
}

type outlinkRepository struct {
	db *gorm.DB
}

// NewOutlinkRepository returns a new OutlinkRepository implementation.
func NewOutlinkRepository(db *gorm.DB) OutlinkRepository {
	return &outlinkRepository{db: db}
}

func (r *outlinkRepository) Create(ctx context.Context, outlink *models.Outlink) error {
	if !outlink.Type.Valid() {
		return models.NewValidationError("unknown outlink type " + string(outlink.Type))
	}
	if err := r.db.WithContext(ctx).Create(outlink).Error; err != nil {
		return classifyWriteError(err, "outlink already exists")
	}
	return nil
}

func (r *outlinkRepository) ListByCategory(ctx context.Context, categoryID uint, typ models.OutlinkType) ([]models.Outlink, error) {
	var outlinks []models.Outlink
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND type = ?", categoryID, typ).
		Order("id ASC").
		Find(&outlinks).Error
	return outlinks, err
}

func (r *outlinkRepository) Icon(ctx context.Context, categoryID uint) (*models.Outlink, error) {
	var icon models.Outlink
	err := r.db.WithContext(ctx).
		Where("category_id = ? AND type = ?", categoryID, models.OutlinkIcon).
		Order("id ASC").
		Take(&icon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &icon, nil
}
