package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"
	"github.com/encukou/prekapavac/internal/outlink"
	"github.com/encukou/prekapavac/internal/repository"
	"github.com/encukou/prekapavac/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoPassword is the password of every generated demo user.
const DemoPassword = "password123"

// DemoOptions sizes the generated dataset. Seed makes the output
// reproducible; zero picks a time-based seed.
type DemoOptions struct {
	Users              int
	Categories         int
	TermsPerCategory   int
	SuggestionsPerTerm int
	Seed               int64
}

// DefaultDemoOptions is a small dataset suitable for local development.
func DefaultDemoOptions() DemoOptions {
	return DemoOptions{Users: 8, Categories: 3, TermsPerCategory: 12, SuggestionsPerTerm: 3}
}

// DemoResult reports what Demo created.
type DemoResult struct {
	Project     *models.Project
	Users       []*models.User
	Terms       int
	Suggestions int
	Votes       int
}

// Demo generates a project named "demo" with fake terms, suggestions and
// votes, plus an administrator "admin". All users share DemoPassword.
func Demo(ctx context.Context, db *gorm.DB, opts DemoOptions) (*DemoResult, error) {
	if opts.Users < 1 || opts.Categories < 1 {
		return nil, models.NewValidationError("demo data needs at least one user and one category")
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(seed)

	result := &DemoResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		g := demoGenerator{
			faker:       faker,
			users:       service.NewUserService(repository.NewUserRepository(tx)),
			projects:    repository.NewProjectRepository(tx),
			categories:  repository.NewCategoryRepository(tx),
			terms:       repository.NewTermRepository(tx),
			outlinks:    repository.NewOutlinkRepository(tx),
			suggestions: repository.NewSuggestionRepository(tx),
			votes:       repository.NewVoteRepository(tx),
			result:      result,
		}
		return g.run(ctx, opts)
	})
	if err != nil {
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "demo data generated",
		slog.Int("users", len(result.Users)),
		slog.Int("terms", result.Terms),
		slog.Int("suggestions", result.Suggestions),
		slog.Int("votes", result.Votes),
	)
	return result, nil
}

type demoGenerator struct {
	faker       *gofakeit.Faker
	users       *service.UserService
	projects    repository.ProjectRepository
	categories  repository.CategoryRepository
	terms       repository.TermRepository
	outlinks    repository.OutlinkRepository
	suggestions repository.SuggestionRepository
	votes       repository.VoteRepository
	result      *DemoResult
}

var demoStatuses = []models.SuggestionStatus{
	models.StatusApproved, models.StatusApproved, models.StatusApproved,
	models.StatusNew, models.StatusDenied, models.StatusFinal,
}

func (g *demoGenerator) run(ctx context.Context, opts DemoOptions) error {
	admin, err := g.users.CreateUser(ctx, service.CreateUserInput{Username: "admin", Password: DemoPassword, Admin: true})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	g.result.Users = append(g.result.Users, admin)
	for i := 1; i < opts.Users; i++ {
		u, err := g.users.CreateUser(ctx, service.CreateUserInput{
			Username: fmt.Sprintf("%s%d", strings.ToLower(g.faker.FirstName()), i),
			Password: DemoPassword,
			Email:    g.faker.Email(),
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		g.result.Users = append(g.result.Users, u)
	}

	project := &models.Project{
		Identifier:  "demo",
		Name:        "Demo " + outlink.Title(g.faker.HipsterWord()),
		Description: g.faker.Sentence(12),
	}
	if err := g.projects.Create(ctx, project); err != nil {
		return err
	}
	g.result.Project = project

	for c := 0; c < opts.Categories; c++ {
		if err := g.category(ctx, project, c, opts); err != nil {
			return err
		}
	}
	return nil
}

func (g *demoGenerator) category(ctx context.Context, project *models.Project, position int, opts DemoOptions) error {
	name := outlink.Title(g.faker.Adjective() + " " + g.faker.Noun())
	category := &models.Category{
		ProjectID:   project.ID,
		Identifier:  fmt.Sprintf("category-%d", position+1),
		Name:        name,
		Description: g.faker.Sentence(8),
		Position:    position,
	}
	if err := g.categories.Create(ctx, category); err != nil {
		return err
	}
	if err := g.outlinks.Create(ctx, &models.Outlink{
		CategoryID: category.ID,
		Label:      "Wiki",
		URL:        "https://wiki.example.com/" + category.Identifier + "/{en_title}",
		Type:       models.OutlinkLink,
	}); err != nil {
		return err
	}

	for n := 1; n <= opts.TermsPerCategory; n++ {
		en := g.faker.Noun()
		term := &models.Term{
			CategoryID: category.ID,
			Number:     n,
			Identifier: fmt.Sprintf("%d", n),
			Label:      fmt.Sprintf("%03d", n),
			TextEN:     outlink.Capitalize(en),
			TextJP:     g.katakana(2 + g.faker.Number(0, 4)),
			Locked:     g.faker.Number(1, 20) == 1,
		}
		if term.Locked {
			term.LockReason = "Official translation"
		}
		if err := g.terms.Create(ctx, term); err != nil {
			return err
		}
		g.result.Terms++

		for s := 0; s < opts.SuggestionsPerTerm; s++ {
			if err := g.suggestion(ctx, term); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *demoGenerator) suggestion(ctx context.Context, term *models.Term) error {
	users := g.result.Users
	author := users[g.faker.Number(0, len(users)-1)]
	sug := &models.Suggestion{
		TermID:      term.ID,
		UserID:      author.ID,
		Text:        outlink.Capitalize(g.faker.Word()),
		Description: g.faker.Sentence(6),
		Status:      demoStatuses[g.faker.Number(0, len(demoStatuses)-1)],
	}
	if err := g.suggestions.Create(ctx, sug); err != nil {
		return err
	}
	g.result.Suggestions++

	if sug.Status != models.StatusApproved || !term.Open() {
		return nil
	}
	for _, voter := range users {
		if !g.faker.Bool() {
			continue
		}
		if err := g.votes.Create(ctx, &models.Vote{
			SuggestionID: sug.ID,
			UserID:       voter.ID,
			Vote:         g.faker.Number(models.VoteDown, models.VoteUp),
			Valid:        true,
		}); err != nil {
			return err
		}
		g.result.Votes++
	}
	return nil
}

// katakana returns n random katakana characters.
func (g *demoGenerator) katakana(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(rune(g.faker.Number(0x30A2, 0x30F3)))
	}
	return b.String()
}
