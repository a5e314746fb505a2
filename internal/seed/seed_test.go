package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/encukou/prekapavac/internal/cache"
	"github.com/encukou/prekapavac/internal/credentials"
	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/outlink"
	"github.com/encukou/prekapavac/internal/repository"
	"github.com/encukou/prekapavac/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
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

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(filepath.Join(t.TempDir(), "seed.db"))), &gorm.Config{
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

func loadFixture(t *testing.T) *File {
	t.Helper()
	fh, err := os.Open(filepath.Join("testdata", "glossary.yml"))
	require.NoError(t, err)
	defer fh.Close()
	f, err := Parse(fh)
	require.NoError(t, err)
	return f
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestParse(t *testing.T) {
	f := loadFixture(t)

	require.Len(t, f.Projects, 1)
	weapons := f.Projects[0].Categories[0]
	assert.Equal(t, "weapons", weapons.Identifier)
	require.Len(t, weapons.Terms, 2)
	assert.Equal(t, "魔法の剣", weapons.Terms[1].JP)
	assert.True(t, weapons.Terms[1].Locked)
	assert.Equal(t, models.OutlinkIcon, weapons.Outlinks[1].Type)
	assert.True(t, f.Projects[0].Categories[1].Hidden)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "projects:\n  - identifier: ff\n    name: FF\n    colour: red\n"},
		{"missing name", "projects:\n  - identifier: ff\n"},
		{"bad outlink type", "projects:\n  - identifier: ff\n    name: FF\n    categories:\n      - identifier: a\n        name: A\n        outlinks:\n          - url: x\n            type: video\n"},
		{"bad outlink template", "projects:\n  - identifier: ff\n    name: FF\n    categories:\n      - identifier: a\n        name: A\n        outlinks:\n          - url: \"{nope}\"\n            type: link\n"},
		{"user without name", "users:\n  - password: secret-password\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_BadTemplateKeepsSentinel(t *testing.T) {
	doc := "projects:\n  - identifier: ff\n    name: FF\n    categories:\n      - identifier: a\n        name: A\n        outlinks:\n          - url: \"{nope}\"\n            type: link\n"
	_, err := Parse(strings.NewReader(doc))
	assert.ErrorIs(t, err, outlink.ErrTemplate)
	assert.True(t, models.IsValidation(err))
}

func TestParse_EmptyDocument(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, f.Projects)
}

func TestImport(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stats, err := Import(ctx, db, loadFixture(t))
	require.NoError(t, err)
	// 2 users, 1 project, 2 categories, 2 outlinks, 3 terms
	assert.Equal(t, 10, stats.Created)
	assert.Zero(t, stats.Updated)
	assert.Len(t, stats.Categories, 2)

	var sword models.Term
	require.NoError(t, db.Where("identifier = ?", "2").First(&sword).Error)
	assert.Equal(t, "Magic sword", sword.TextEN)
	assert.True(t, sword.Locked)
	assert.Equal(t, "Official name", sword.LockReason)

	var spoilers models.Category
	require.NoError(t, db.Where("identifier = ?", "spoilers").First(&spoilers).Error)
	assert.True(t, spoilers.Hidden)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.Admin)
	assert.True(t, admin.Active)
	ok, err := credentials.Verify("correct horse", admin.Password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImport_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := Import(ctx, db, loadFixture(t))
	require.NoError(t, err)

	f := loadFixture(t)
	f.Projects[0].Name = "Final Fantasy VI"
	stats, err := Import(ctx, db, f)
	require.NoError(t, err)
	assert.Zero(t, stats.Created)
	assert.Equal(t, 6, stats.Updated)

	assert.Equal(t, int64(1), count(t, db, &models.Project{}))
	assert.Equal(t, int64(2), count(t, db, &models.Category{}))
	assert.Equal(t, int64(3), count(t, db, &models.Term{}))
	assert.Equal(t, int64(2), count(t, db, &models.Outlink{}))
	assert.Equal(t, int64(2), count(t, db, &models.User{}))

	var project models.Project
	require.NoError(t, db.First(&project).Error)
	assert.Equal(t, "Final Fantasy VI", project.Name)
}

func TestImport_RollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)

	f := loadFixture(t)
	// Too short for an account password.
	f.Users = append(f.Users, UserDoc{Username: "weak", Password: "x"})

	_, err := Import(context.Background(), db, f)
	require.Error(t, err)
	assert.Equal(t, int64(0), count(t, db, &models.User{}))
	assert.Equal(t, int64(0), count(t, db, &models.Project{}))
}

func TestDemo(t *testing.T) {
	db := setupTestDB(t)
	opts := DemoOptions{Users: 4, Categories: 2, TermsPerCategory: 5, SuggestionsPerTerm: 2, Seed: 42}

	result, err := Demo(context.Background(), db, opts)
	require.NoError(t, err)

	assert.Equal(t, "demo", result.Project.Identifier)
	require.Len(t, result.Users, 4)
	assert.Equal(t, "admin", result.Users[0].Username)
	assert.True(t, result.Users[0].Admin)
	assert.Equal(t, 10, result.Terms)
	assert.Equal(t, 20, result.Suggestions)

	assert.Equal(t, int64(2), count(t, db, &models.Category{}))
	assert.Equal(t, int64(10), count(t, db, &models.Term{}))
	assert.Equal(t, int64(20), count(t, db, &models.Suggestion{}))
	assert.Equal(t, int64(result.Votes), count(t, db, &models.Vote{}))

	var votes []models.Vote
	require.NoError(t, db.Find(&votes).Error)
	for _, v := range votes {
		assert.True(t, models.ValidVoteValue(v.Vote))
	}

	var outlinks []models.Outlink
	require.NoError(t, db.Find(&outlinks).Error)
	for _, o := range outlinks {
		assert.NoError(t, outlink.Validate(o.URL))
	}
}

func TestDemo_ValidatesOptions(t *testing.T) {
	db := setupTestDB(t)
	_, err := Demo(context.Background(), db, DemoOptions{})
	assert.True(t, models.IsValidation(err))
}

func TestImport_ReportsTouchedCategories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stats, err := Import(ctx, db, loadFixture(t))
	require.NoError(t, err)

	var weapons, spoilers models.Category
	require.NoError(t, db.Where("identifier = ?", "weapons").First(&weapons).Error)
	require.NoError(t, db.Where("identifier = ?", "spoilers").First(&spoilers).Error)
	assert.Equal(t, []uint{weapons.ID, spoilers.ID}, stats.Categories)
	assert.Equal(t, []string{cache.CategoryProgressKey(weapons.ID), cache.CategoryProgressKey(spoilers.ID)}, stats.ProgressKeys())

	assert.Empty(t, Stats{}.ProgressKeys())
}

func TestImport_ProgressKeysClearStaleTotals(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	store := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })

	_, err = Import(ctx, db, loadFixture(t))
	require.NoError(t, err)

	var weapons models.Category
	require.NoError(t, db.Where("identifier = ?", "weapons").First(&weapons).Error)
	var dagger models.Term
	require.NoError(t, db.Where("identifier = ?", "dagger").First(&dagger).Error)
	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	require.NoError(t, db.Create(&models.Suggestion{TermID: dagger.ID, UserID: admin.ID, Text: "Dýka", Status: models.StatusApproved}).Error)

	progress := service.NewProgressService(repository.NewProgressRepository(db), store, time.Minute)
	got, err := progress.CategoryProgress(ctx, weapons.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Total)
	assert.True(t, mr.Exists(cache.CategoryProgressKey(weapons.ID)))

	f := loadFixture(t)
	f.Projects[0].Categories[0].Terms[0].Locked = true
	stats, err := Import(ctx, db, f)
	require.NoError(t, err)

	got, err = progress.CategoryProgress(ctx, weapons.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Total, "cached total survives until invalidated")

	store.Invalidate(ctx, stats.ProgressKeys()...)
	got, err = progress.CategoryProgress(ctx, weapons.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Total, "locked terms no longer count")
}
