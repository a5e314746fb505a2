package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/encukou/prekapavac/internal/config"
	"github.com/encukou/prekapavac/internal/credentials"
	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/middleware"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func init() {
	credentials.Cost = bcrypt.MinCost
}

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	server *Server
	app    *fiber.App
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(filepath.Join(t.TempDir(), "server.db"))), &gorm.Config{
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

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{
		Env:                     "test",
		JWTSecret:               testSecret,
		ProgressCacheTTLSeconds: 60,
	}
	s := NewServerWithDeps(cfg, db, nil)
	return &testEnv{t: t, db: db, server: s, app: s.App()}
}

type fixture struct {
	project  *models.Project
	weapons  *models.Category
	secret   *models.Category
	dagger   *models.Term
	unseen   *models.Term
	sword    *models.Term
	admin    *models.User
	alice    *models.User
	bob      *models.User
	adminTok string
	aliceTok string
	bobTok   string
}

func (e *testEnv) seed() fixture {
	t := e.t
	t.Helper()
	ctx := context.Background()

	f := fixture{}
	f.project = &models.Project{Identifier: "ff", Name: "Final Fantasy", Position: 1}
	require.NoError(t, e.db.Create(f.project).Error)
	f.weapons = &models.Category{ProjectID: f.project.ID, Identifier: "weapons", Name: "Weapons", Position: 1}
	require.NoError(t, e.db.Create(f.weapons).Error)
	f.secret = &models.Category{ProjectID: f.project.ID, Identifier: "secret", Name: "Secret", Position: 2, Hidden: true}
	require.NoError(t, e.db.Create(f.secret).Error)

	f.dagger = &models.Term{CategoryID: f.weapons.ID, Number: 1, Identifier: "dagger", TextEN: "Dagger", TextJP: "短剣"}
	f.unseen = &models.Term{CategoryID: f.weapons.ID, Number: 2, Identifier: "unseen", TextEN: "Unseen", Hidden: true}
	f.sword = &models.Term{CategoryID: f.weapons.ID, Number: 3, Identifier: "sword", TextEN: "magic sword", TextJP: "剣"}
	for _, term := range []*models.Term{f.dagger, f.unseen, f.sword} {
		require.NoError(t, e.db.Create(term).Error)
	}

	require.NoError(t, e.db.Create(&models.Outlink{CategoryID: f.weapons.ID, Label: "Wiki", URL: "https://wiki.example/{en_title}", Type: models.OutlinkLink}).Error)
	require.NoError(t, e.db.Create(&models.Outlink{CategoryID: f.weapons.ID, Label: "Icon", URL: "https://img.example/{num}.png", Type: models.OutlinkIcon}).Error)

	var err error
	f.admin, err = e.server.users.CreateUser(ctx, service.CreateUserInput{Username: "admin", Password: "correct horse", Admin: true})
	require.NoError(t, err)
	f.alice, err = e.server.users.CreateUser(ctx, service.CreateUserInput{Username: "alice", Password: "alice-password"})
	require.NoError(t, err)
	f.bob, err = e.server.users.CreateUser(ctx, service.CreateUserInput{Username: "bob", Password: "bob-password"})
	require.NoError(t, err)

	f.adminTok = e.token(f.admin)
	f.aliceTok = e.token(f.alice)
	f.bobTok = e.token(f.bob)
	return f
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	tok, err := middleware.GenerateToken(testSecret, u.ID, u.Username, time.Hour)
	require.NoError(e.t, err)
	return tok
}

// do sends a request and returns the status code and raw body.
func (e *testEnv) do(method, path string, body any, token string) (int, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, 5000)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// approve submits a suggestion as tok's user and approves it as admin.
func (e *testEnv) approve(f fixture, term *models.Term, tok, text string) uint {
	e.t.Helper()
	status, raw := e.do(http.MethodPost, fmt.Sprintf("/api/terms/%d/suggestions", term.ID), fiber.Map{"text": text}, tok)
	require.Equal(e.t, http.StatusCreated, status, string(raw))
	sug := decode[models.Suggestion](e.t, raw)

	status, raw = e.do(http.MethodPatch, fmt.Sprintf("/api/admin/suggestions/%d/status", sug.ID), fiber.Map{"status": "approved"}, f.adminTok)
	require.Equal(e.t, http.StatusOK, status, string(raw))
	return sug.ID
}
