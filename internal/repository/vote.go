package repository

import (
	"context"
	"time"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// VoteRepository defines persistence operations for votes.
type VoteRepository interface {
	Get(ctx context.Context, suggestionID, userID uint) (*models.Vote, error)
	// Create inserts a new vote. A vote already held by the user on the
	// suggestion is reported as CONSTRAINT_VIOLATION.
	Create(ctx context.Context, vote *models.Vote) error
	// UpdateValue changes the value of an existing vote. The valid flag is
	// left alone so an invalidated vote stays invalid.
	UpdateValue(ctx context.Context, suggestionID, userID uint, value int) error
	// Invalidate marks a vote as not counting. The row is kept.
	Invalidate(ctx context.Context, suggestionID, userID uint) error
	ListBySuggestion(ctx context.Context, suggestionID uint) ([]models.Vote, error)
	// ListByUserOnTerm returns the user's votes on the term's suggestions, keyed by suggestion.
	ListByUserOnTerm(ctx context.Context, termID, userID uint) (map[uint]models.Vote, error)
}

type voteRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewVoteRepository returns a new VoteRepository implementation.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db, log: observability.NewRepoLogger("votes")}
}

func (r *voteRepository) Get(ctx context.Context, suggestionID, userID uint) (*models.Vote, error) {
	var vote models.Vote
	result := r.db.WithContext(ctx).
		Where("suggestion_id = ? AND user_id = ?", suggestionID, userID).
		Limit(1).
		Find(&vote)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Vote", suggestionID)
	}
	return &vote, nil
}

func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		return classifyWriteError(err, "vote already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"suggestion_id": vote.SuggestionID, "user_id": vote.UserID, "vote": vote.Vote})
	return nil
}

func (r *voteRepository) UpdateValue(ctx context.Context, suggestionID, userID uint, value int) error {
	return r.update(ctx, suggestionID, userID, map[string]any{"vote": value, "changed_at": time.Now()})
}

func (r *voteRepository) Invalidate(ctx context.Context, suggestionID, userID uint) error {
	return r.update(ctx, suggestionID, userID, map[string]any{"valid": false, "changed_at": time.Now()})
}

func (r *voteRepository) update(ctx context.Context, suggestionID, userID uint, values map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("suggestion_id = ? AND user_id = ?", suggestionID, userID).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Vote", suggestionID)
	}
	r.log.LogUpdate(ctx, map[string]any{"suggestion_id": suggestionID, "user_id": userID})
	return nil
}

func (r *voteRepository) ListBySuggestion(ctx context.Context, suggestionID uint) ([]models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Where("suggestion_id = ?", suggestionID).
		Order("changed_at ASC").
		Find(&votes).Error
	return votes, err
}

func (r *voteRepository) ListByUserOnTerm(ctx context.Context, termID, userID uint) (map[uint]models.Vote, error) {
	var votes []models.Vote
	err := r.db.WithContext(ctx).
		Joins("JOIN suggestions ON suggestions.id = votes.suggestion_id").
		Where("suggestions.term_id = ? AND votes.user_id = ?", termID, userID).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]models.Vote, len(votes))
	for _, v := range votes {
		out[v.SuggestionID] = v
	}
	return out, nil
}
