package repository

import (
	"context"
	"errors"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// TermRepository defines persistence operations for terms.
type TermRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Term, error)
	// GetVisible is GetByID for readers without moderation rights: a hidden
	// term, or a term in a hidden category, is NOT_FOUND.
	GetVisible(ctx context.Context, id uint) (*models.Term, error)
	GetByIdentifier(ctx context.Context, categoryID uint, identifier string) (*models.Term, error)
	ListByCategory(ctx context.Context, categoryID uint, includeHidden bool) ([]models.Term, error)
	// Prev and Next return the nearest term by number within the same
	// category, or nil at either end. Hidden terms are skipped unless
	// includeHidden is set.
	Prev(ctx context.Context, term *models.Term, includeHidden bool) (*models.Term, error)
	Next(ctx context.Context, term *models.Term, includeHidden bool) (*models.Term, error)
	Create(ctx context.Context, term *models.Term) error
	Update(ctx context.Context, term *models.Term) error
}

type termRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewTermRepository returns a new TermRepository implementation.
func NewTermRepository(db *gorm.DB) TermRepository {
	return &termRepository{db: db, log: observability.NewRepoLogger("terms")}
}

func (r *termRepository) GetByID(ctx context.Context, id uint) (*models.Term, error) {
	return findByID[models.Term](ctx, r.db, id)
}

func (r *termRepository) GetVisible(ctx context.Context, id uint) (*models.Term, error) {
	var term models.Term
	err := r.db.WithContext(ctx).
		Select("terms.*").
		Joins("JOIN categories ON categories.id = terms.category_id").
		Where("terms.id = ? AND terms.hidden = ? AND categories.hidden = ?", id, false, false).
		Take(&term).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Term", id)
	}
	if err != nil {
		return nil, err
	}
	return &term, nil
}

func (r *termRepository) GetByIdentifier(ctx context.Context, categoryID uint, identifier string) (*models.Term, error) {
	return FindByIdentifier[models.Term](ctx, r.db, Within("category_id", categoryID), identifier)
}

func (r *termRepository) ListByCategory(ctx context.Context, categoryID uint, includeHidden bool) ([]models.Term, error) {
	var terms []models.Term
	q := r.db.WithContext(ctx).Where("category_id = ?", categoryID)
	if !includeHidden {
		q = q.Where("hidden = ?", false)
	}
	err := q.Order("number ASC").Order("id ASC").Find(&terms).Error
	return terms, err
}

func (r *termRepository) Prev(ctx context.Context, term *models.Term, includeHidden bool) (*models.Term, error) {
	return r.neighbour(ctx, term, includeHidden, "number < ?", "number DESC")
}

func (r *termRepository) Next(ctx context.Context, term *models.Term, includeHidden bool) (*models.Term, error) {
	return r.neighbour(ctx, term, includeHidden, "number > ?", "number ASC")
}

func (r *termRepository) neighbour(ctx context.Context, term *models.Term, includeHidden bool, cond, order string) (*models.Term, error) {
	var out models.Term
	q := r.db.WithContext(ctx).
		Where("category_id = ?", term.CategoryID).
		Where(cond, term.Number)
	if !includeHidden {
		q = q.Where("hidden = ?", false)
	}
	err := q.Order(order).Order("id ASC").Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *termRepository) Create(ctx context.Context, term *models.Term) error {
	if err := r.db.WithContext(ctx).Create(term).Error; err != nil {
		return classifyWriteError(err, "term identifier already exists in category")
	}
	r.log.LogCreate(ctx, map[string]any{"id": term.ID, "category_id": term.CategoryID})
	return nil
}

func (r *termRepository) Update(ctx context.Context, term *models.Term) error {
	if err := r.db.WithContext(ctx).Save(term).Error; err != nil {
		return classifyWriteError(err, "term identifier already exists in category")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": term.ID})
	return nil
}
