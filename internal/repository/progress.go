package repository

import (
	"context"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// ProgressRepository counts the work done on a category. Only approved
// suggestions on terms that are neither hidden nor locked are counted.
type ProgressRepository interface {
	CountSuggestions(ctx context.Context, categoryID uint) (int64, error)
	// CountRatedSuggestions counts those the user holds a valid vote on.
	CountRatedSuggestions(ctx context.Context, categoryID, userID uint) (int64, error)
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository returns a new ProgressRepository implementation.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) countable(ctx context.Context, categoryID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Suggestion{}).
		Joins("JOIN terms ON terms.id = suggestions.term_id").
		Where("terms.category_id = ?", categoryID).
		Where("terms.hidden = ? AND terms.locked = ?", false, false).
		Where("suggestions.status = ?", models.StatusApproved)
}

func (r *progressRepository) CountSuggestions(ctx context.Context, categoryID uint) (int64, error) {
	defer observability.TrackQuery("count", "suggestions")()

	var count int64
	err := r.countable(ctx, categoryID).Count(&count).Error
	return count, err
}

func (r *progressRepository) CountRatedSuggestions(ctx context.Context, categoryID, userID uint) (int64, error) {
	defer observability.TrackQuery("count_rated", "suggestions")()

	var count int64
	err := r.countable(ctx, categoryID).
		Joins("JOIN votes ON votes.suggestion_id = suggestions.id").
		Where("votes.user_id = ? AND votes.valid = ?", userID, true).
		Count(&count).Error
	return count, err
}
