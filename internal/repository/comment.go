package repository

import (
	"context"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListByTerm returns the displayable comments on a term, oldest first.
	ListByTerm(ctx context.Context, termID uint) ([]*models.Comment, error)
	// ListAllByTerm includes soft-deleted comments.
	ListAllByTerm(ctx context.Context, termID uint) ([]*models.Comment, error)
	SoftDelete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return classifyWriteError(err, "comment already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"id": comment.ID, "term_id": comment.TermID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return findByID[models.Comment](ctx, r.db, id)
}

func (r *commentRepository) ListByTerm(ctx context.Context, termID uint) ([]*models.Comment, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("term_id = ? AND deleted = ?", termID, false))
}

func (r *commentRepository) ListAllByTerm(ctx context.Context, termID uint) ([]*models.Comment, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("term_id = ?", termID))
}

func (r *commentRepository) list(_ context.Context, q *gorm.DB) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := q.Preload("User").Order("created_at ASC").Order("id ASC").Find(&comments).Error
	return comments, err
}

func (r *commentRepository) SoftDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}
