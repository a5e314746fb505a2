package repository

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh SQLite database with foreign keys enforced.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := database.SQLiteDSN(filepath.Join(t.TempDir(), "repo.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// catalog is a project with one category holding one term.
type catalog struct {
	project  *models.Project
	category *models.Category
	term     *models.Term
}

func seedCatalog(t *testing.T, db *gorm.DB) catalog {
	t.Helper()
	project := &models.Project{Identifier: "ff", Name: "Final Fantasy", Position: 1}
	require.NoError(t, db.Create(project).Error)

	category := &models.Category{ProjectID: project.ID, Identifier: "weapons", Name: "Weapons", Position: 1}
	require.NoError(t, db.Create(category).Error)

	term := &models.Term{CategoryID: category.ID, Number: 3, Identifier: "sword", TextEN: "Sword", TextJP: "剣"}
	require.NoError(t, db.Create(term).Error)

	return catalog{project: project, category: category, term: term}
}

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Username: name, Active: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTerm(t *testing.T, db *gorm.DB, categoryID uint, number int, mutate ...func(*models.Term)) *models.Term {
	t.Helper()
	term := &models.Term{CategoryID: categoryID, Number: number, Identifier: fmt.Sprintf("term-%d", number), TextEN: fmt.Sprintf("Term %d", number)}
	for _, m := range mutate {
		m(term)
	}
	require.NoError(t, db.Create(term).Error)
	return term
}

func seedSuggestion(t *testing.T, db *gorm.DB, termID, userID uint, text string, status models.SuggestionStatus, createdAt time.Time) *models.Suggestion {
	t.Helper()
	s := &models.Suggestion{TermID: termID, UserID: userID, Text: text, Status: status, CreatedAt: createdAt}
	require.NoError(t, db.Create(s).Error)
	return s
}

func seedVote(t *testing.T, db *gorm.DB, suggestionID, userID uint, value int, valid bool) {
	t.Helper()
	require.NoError(t, db.Create(&models.Vote{SuggestionID: suggestionID, UserID: userID, Vote: value, Valid: valid}).Error)
}
