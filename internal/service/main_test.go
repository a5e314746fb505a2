package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/encukou/prekapavac/internal/credentials"
	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	credentials.Cost = bcrypt.MinCost
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsValidation(err), "expected validation error, got %v", err)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeForbidden), "expected forbidden error, got %v", err)
}

func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized), "expected unauthorized error, got %v", err)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(filepath.Join(t.TempDir(), "service.db"))), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// glossary wires every service over one SQLite database.
type glossary struct {
	db          *gorm.DB
	users       *UserService
	catalog     *CatalogService
	scoring     *ScoringService
	progress    *ProgressService
	suggestions *SuggestionService
	votes       *VoteService
	comments    *CommentService
}

func newGlossary(t *testing.T) *glossary {
	t.Helper()
	db := setupTestDB(t)

	userRepo := repository.NewUserRepository(db)
	termRepo := repository.NewTermRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	users := NewUserService(userRepo)
	progress := NewProgressService(repository.NewProgressRepository(db), nil, time.Minute)

	return &glossary{
		db:    db,
		users: users,
		catalog: NewCatalogService(
			repository.NewProjectRepository(db),
			repository.NewCategoryRepository(db),
			termRepo,
			repository.NewOutlinkRepository(db),
		),
		scoring:     NewScoringService(suggestionRepo, voteRepo),
		progress:    progress,
		suggestions: NewSuggestionService(suggestionRepo, termRepo, progress, users.IsAdmin),
		votes:       NewVoteService(voteRepo, suggestionRepo, termRepo, users.IsAdmin),
		comments:    NewCommentService(repository.NewCommentRepository(db), termRepo, users.IsAdmin),
	}
}

type seeded struct {
	project  *models.Project
	category *models.Category
	term     *models.Term
	admin    *models.User
}

func (g *glossary) seed(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()

	project := &models.Project{Identifier: "ff", Name: "Final Fantasy", Position: 1}
	require.NoError(t, g.db.Create(project).Error)
	category := &models.Category{ProjectID: project.ID, Identifier: "weapons", Name: "Weapons", Position: 1}
	require.NoError(t, g.db.Create(category).Error)
	term := &models.Term{CategoryID: category.ID, Number: 3, Identifier: "sword", TextEN: "Sword", TextJP: "剣"}
	require.NoError(t, g.db.Create(term).Error)

	admin, err := g.users.CreateUser(ctx, CreateUserInput{Username: "admin", Password: "correct horse", Admin: true})
	require.NoError(t, err)

	return seeded{project: project, category: category, term: term, admin: admin}
}

func (g *glossary) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := g.users.CreateUser(context.Background(), CreateUserInput{Username: name, Password: "password-" + name})
	require.NoError(t, err)
	return u
}

// approved submits a suggestion as author and approves it as admin.
func (g *glossary) approved(t *testing.T, s seeded, author *models.User, text string) *models.Suggestion {
	t.Helper()
	ctx := context.Background()
	sug, err := g.suggestions.Create(ctx, CreateSuggestionInput{UserID: author.ID, TermID: s.term.ID, Text: text})
	require.NoError(t, err)
	sug, err = g.suggestions.ChangeStatus(ctx, ChangeStatusInput{ActorID: s.admin.ID, SuggestionID: sug.ID, Status: models.StatusApproved})
	require.NoError(t, err)
	return sug
}
