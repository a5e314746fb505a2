package repository

import (
	"context"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"

	"gorm.io/gorm"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Project, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Project, error)
	List(ctx context.Context) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
}

type projectRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProjectRepository returns a new ProjectRepository implementation.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db, log: observability.NewRepoLogger("projects")}
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	return findByID[models.Project](ctx, r.db, id)
}

func (r *projectRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Project, error) {
	return FindByIdentifier[models.Project](ctx, r.db, Global, identifier)
}

func (r *projectRepository) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).Order("position ASC").Order("id ASC").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return classifyWriteError(err, "project identifier already exists")
	}
	r.log.LogCreate(ctx, map[string]any{"id": project.ID, "identifier": project.Identifier})
	return nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return classifyWriteError(err, "project identifier already exists")
	}
	r.log.LogUpdate(ctx, map[string]any{"id": project.ID})
	return nil
}
