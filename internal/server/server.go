// Package server exposes the glossary over a thin JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/encukou/prekapavac/internal/cache"
	"github.com/encukou/prekapavac/internal/config"
	"github.com/encukou/prekapavac/internal/database"
	"github.com/encukou/prekapavac/internal/middleware"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"
	"github.com/encukou/prekapavac/internal/repository"
	"github.com/encukou/prekapavac/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

const (
	tokenTTL = 7 * 24 * time.Hour
	// Request bodies are short JSON documents.
	bodyLimit = 1 << 20
)

// Server holds the shared storage handles and the glossary services.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	cache          *cache.Store
	promMiddleware *fiberprometheus.FiberPrometheus
	app            *fiber.App

	users       *service.UserService
	catalog     *service.CatalogService
	scoring     *service.ScoringService
	progress    *service.ProgressService
	suggestions *service.SuggestionService
	votes       *service.VoteService
	comments    *service.CommentService
}

// NewServer connects to the database and Redis described by cfg and wires
// the services on top of them.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	store, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, store), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// store may be nil, which disables caching and rate limiting.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, store *cache.Store) *Server {
	userRepo := repository.NewUserRepository(db)
	termRepo := repository.NewTermRepository(db)
	suggestionRepo := repository.NewSuggestionRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	users := service.NewUserService(userRepo)
	progress := service.NewProgressService(
		repository.NewProgressRepository(db),
		store,
		time.Duration(cfg.ProgressCacheTTLSeconds)*time.Second,
	)

	return &Server{
		config:         cfg,
		db:             db,
		cache:          store,
		promMiddleware: middleware.InitMetrics("prekapavac-api"),
		users:          users,
		catalog: service.NewCatalogService(
			repository.NewProjectRepository(db),
			repository.NewCategoryRepository(db),
			termRepo,
			repository.NewOutlinkRepository(db),
		),
		scoring:     service.NewScoringService(suggestionRepo, voteRepo),
		progress:    progress,
		suggestions: service.NewSuggestionService(suggestionRepo, termRepo, progress, users.IsAdmin),
		votes:       service.NewVoteService(voteRepo, suggestionRepo, termRepo, users.IsAdmin),
		comments:    service.NewCommentService(repository.NewCommentRepository(db), termRepo, users.IsAdmin),
	}
}

// App builds the Fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:      "prekapavac",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	observability.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	secret := s.config.JWTSecret
	authRequired := middleware.AuthRequired(secret)
	optionalAuth := middleware.OptionalAuth(secret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(s.cache, 10, 5*time.Minute, "login"), s.Login)
	api.Get("/me", authRequired, s.Me)

	projects := api.Group("/projects", optionalAuth)
	projects.Get("/", s.GetProjects)
	projects.Get("/:project/:category", s.GetCategory)
	projects.Get("/:project/:category/:term", s.GetTerm)

	api.Post("/terms/:termId/suggestions", authRequired, s.CreateSuggestion)
	api.Post("/terms/:termId/comments", authRequired, s.CreateComment)
	api.Put("/suggestions/:suggestionId/vote", authRequired,
		middleware.RateLimit(s.cache, s.config.VoteRateLimitPerMinute, time.Minute, "vote"),
		s.CastVote)
	api.Delete("/comments/:commentId", authRequired, s.DeleteComment)

	admin := api.Group("/admin", authRequired, middleware.AdminRequired(s.users.IsAdmin))
	admin.Get("/terms/:termId/suggestions", s.ListSuggestionsForModeration)
	admin.Patch("/suggestions/:suggestionId/status", s.ChangeSuggestionStatus)
	admin.Delete("/suggestions/:suggestionId/votes/:userId", s.InvalidateVote)
}

// Start serves HTTP on the configured port until Shutdown is called.
func (s *Server) Start() error {
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests and releases the storage handles.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := s.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis close: %w", err))
	}
	if err := database.Close(s.db); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}
	return errors.Join(errs...)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and, when configured, Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.cache.Enabled() {
		redisStatus = "healthy"
		if err := s.cache.Client().Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"database": dbStatus,
		"redis":    redisStatus,
		"time":     time.Now(),
	})
}
