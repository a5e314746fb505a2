package repository

import (
	"context"
	"time"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// SuggestionRepository defines persistence and scoring queries for suggestions.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *models.Suggestion) error
	GetByID(ctx context.Context, id uint) (*models.Suggestion, error)
	// ListByTerm returns every suggestion on the term regardless of status,
	// oldest first. Intended for moderators.
	ListByTerm(ctx context.Context, termID uint) ([]models.Suggestion, error)
	UpdateStatus(ctx context.Context, id uint, status models.SuggestionStatus) error

	// Ranked returns the approved suggestions of a term with their score,
	// best first. Ties go to the older suggestion, then the lower id.
	Ranked(ctx context.Context, termID uint) ([]models.Suggestion, error)
	// Score sums the valid votes on a suggestion; no votes means zero.
	Score(ctx context.Context, suggestionID uint) (int64, error)
	// NegativeScore counts the valid votes below zero.
	NegativeScore(ctx context.Context, suggestionID uint) (int64, error)
	// UserHasUnrated reports whether the user has no vote, valid or not, on
	// some approved suggestion of an open term.
	UserHasUnrated(ctx context.Context, termID, userID uint) (bool, error)
}

type suggestionRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSuggestionRepository returns a new SuggestionRepository implementation.
func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &suggestionRepository{db: db, log: observability.NewRepoLogger("suggestions")}
}

func (r *suggestionRepository) Create(ctx context.Context, suggestion *models.Suggestion) error {
	if err := r.db.WithContext(ctx).Create(suggestion).Error; err != nil {
		return classifyWriteError(err, "suggestion already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"id": suggestion.ID, "term_id": suggestion.TermID, "user_id": suggestion.UserID})
	return nil
}

func (r *suggestionRepository) GetByID(ctx context.Context, id uint) (*models.Suggestion, error) {
	return findByID[models.Suggestion](ctx, r.db, id)
}

func (r *suggestionRepository) ListByTerm(ctx context.Context, termID uint) ([]models.Suggestion, error) {
	var suggestions []models.Suggestion
	err := r.db.WithContext(ctx).
		Where("term_id = ?", termID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&suggestions).Error
	return suggestions, err
}

func (r *suggestionRepository) UpdateStatus(ctx context.Context, id uint, status models.SuggestionStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Suggestion{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "changed_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Suggestion", id)
	}
	r.log.LogUpdate(ctx, map[string]any{"id": id, "status": status})
	return nil
}

func (r *suggestionRepository) Ranked(ctx context.Context, termID uint) ([]models.Suggestion, error) {
	defer observability.TrackQuery("ranked", "suggestions")()

	var suggestions []models.Suggestion
	err := r.db.WithContext(ctx).
		Model(&models.Suggestion{}).
		Select("suggestions.*, COALESCE(SUM(votes.vote), 0) AS score").
		Joins("LEFT JOIN votes ON votes.suggestion_id = suggestions.id AND votes.valid = ?", true).
		Where("suggestions.term_id = ? AND suggestions.status = ?", termID, models.StatusApproved).
		Group("suggestions.id").
		Order("score DESC").
		Order("suggestions.created_at ASC").
		Order("suggestions.id ASC").
		Find(&suggestions).Error
	return suggestions, err
}

func (r *suggestionRepository) Score(ctx context.Context, suggestionID uint) (int64, error) {
	var score int64
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Select("COALESCE(SUM(vote), 0)").
		Where("suggestion_id = ? AND valid = ?", suggestionID, true).
		Scan(&score).Error
	return score, err
}

func (r *suggestionRepository) NegativeScore(ctx context.Context, suggestionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("suggestion_id = ? AND valid = ? AND vote < ?", suggestionID, true, 0).
		Count(&count).Error
	return count, err
}

func (r *suggestionRepository) UserHasUnrated(ctx context.Context, termID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Suggestion{}).
		Joins("JOIN terms ON terms.id = suggestions.term_id").
		Where("suggestions.term_id = ? AND suggestions.status = ?", termID, models.StatusApproved).
		Where("terms.hidden = ? AND terms.locked = ?", false, false).
		Where("NOT EXISTS (SELECT 1 FROM votes WHERE votes.suggestion_id = suggestions.id AND votes.user_id = ?)", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
