package repository

import (
	"context"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	GetByIdentifier(ctx context.Context, projectID uint, identifier string) (*models.Category, error)
	ListByProject(ctx context.Context, projectID uint, includeHidden bool) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
}

type categoryRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCategoryRepository returns a new CategoryRepository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db, log: observability.NewRepoLogger("categories")}
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	return findByID[models.Category](ctx, r.db, id)
}

// GetByIdentifier looks the category up inside its project; the same
// identifier in another project is a miss.
func (r *categoryRepository) GetByIdentifier(ctx context.Context, projectID uint, identifier string) (*models.Category, error) {
	return FindByIdentifier[models.Category](ctx, r.db, Within("project_id", projectID), identifier)
}

func (r *categoryRepository) ListByProject(ctx context.Context, projectID uint, includeHidden bool) ([]models.Category, error) {
	var categories []models.Category
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if !includeHidden {
		q = q.Where("hidden = ?", false)
	}
	err := q.Order("position ASC").Order("id ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return classifyWriteError(err, "category identifier already exists in project")
	}
	r.log.LogCreate(ctx, map[string]any{"id": category.ID, "project_id": category.ProjectID})
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return classifyWriteError(err, "category identifier already exists in project")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": category.ID})
	return nil
}
