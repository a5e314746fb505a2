// Package seed loads glossary content into the database: curated data from
// YAML files and generated demo data for development.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/encukou/prekapavac/internal/cache"
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"
	"github.com/encukou/prekapavac/internal/outlink"
	"github.com/encukou/prekapavac/internal/repository"
	"github.com/encukou/prekapavac/internal/service"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// File is a glossary document accepted by Import.
type File struct {
	Users    []UserDoc    `yaml:"users"`
	Projects []ProjectDoc `yaml:"projects"`
}

type UserDoc struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email"`
	Admin    bool   `yaml:"admin"`
}

type ProjectDoc struct {
	Identifier  string        `yaml:"identifier"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Position    int           `yaml:"position"`
	Categories  []CategoryDoc `yaml:"categories"`
}

type CategoryDoc struct {
	Identifier  string       `yaml:"identifier"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Position    int          `yaml:"position"`
	Hidden      bool         `yaml:"hidden"`
	Outlinks    []OutlinkDoc `yaml:"outlinks"`
	Terms       []TermDoc    `yaml:"terms"`
}

type OutlinkDoc struct {
	Label string             `yaml:"label"`
	URL   string             `yaml:"url"`
	Type  models.OutlinkType `yaml:"type"`
}

// TermDoc describes a term. Identifier defaults to the term number.
type TermDoc struct {
	Number     int    `yaml:"number"`
	Identifier string `yaml:"identifier"`
	Label      string `yaml:"label"`
	EN         string `yaml:"en"`
	JP         string `yaml:"jp"`
	Hidden     bool   `yaml:"hidden"`
	Locked     bool   `yaml:"locked"`
	LockReason string `yaml:"lock_reason"`
}

// Stats counts the rows Import created and updated.
type Stats struct {
	Created int
	Updated int
	// Categories lists every category the import wrote, in document order.
	Categories []uint
}

// ProgressKeys returns the cache keys holding progress for the categories
// the import wrote.
func (s Stats) ProgressKeys() []string {
	keys := make([]string, 0, len(s.Categories))
	for _, id := range s.Categories {
		keys = append(keys, cache.CategoryProgressKey(id))
	}
	return keys
}

// Parse decodes a glossary document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	for _, p := range f.Projects {
		if strings.TrimSpace(p.Identifier) == "" || strings.TrimSpace(p.Name) == "" {
			return models.NewValidationError("every project needs an identifier and a name")
		}
		for _, c := range p.Categories {
			if strings.TrimSpace(c.Identifier) == "" || strings.TrimSpace(c.Name) == "" {
				return models.NewValidationError(fmt.Sprintf("project %s: every category needs an identifier and a name", p.Identifier))
			}
			for _, o := range c.Outlinks {
				if !o.Type.Valid() {
					return models.NewValidationError(fmt.Sprintf("%s/%s: unknown outlink type %q", p.Identifier, c.Identifier, o.Type))
				}
				if err := outlink.Validate(o.URL); err != nil {
					return models.WrapValidationError(fmt.Sprintf("%s/%s: outlink %q", p.Identifier, c.Identifier, o.URL), err)
				}
			}
		}
	}
	for _, u := range f.Users {
		if strings.TrimSpace(u.Username) == "" {
			return models.NewValidationError("every user needs a username")
		}
	}
	return nil
}

// Import writes f in one transaction. Entities are matched by identifier,
// so importing the same document twice updates rather than duplicates.
// Existing users are left untouched.
func Import(ctx context.Context, db *gorm.DB, f *File) (Stats, error) {
	var stats Stats
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		imp := importer{
			projects:   repository.NewProjectRepository(tx),
			categories: repository.NewCategoryRepository(tx),
			terms:      repository.NewTermRepository(tx),
			outlinks:   repository.NewOutlinkRepository(tx),
			userRepo:   repository.NewUserRepository(tx),
			stats:      &stats,
		}
		imp.users = service.NewUserService(imp.userRepo)

		for _, u := range f.Users {
			if err := imp.user(ctx, u); err != nil {
				return err
			}
		}
		for _, p := range f.Projects {
			if err := imp.project(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	observability.Logger.InfoContext(ctx, "glossary imported",
		slog.Int("created", stats.Created),
		slog.Int("updated", stats.Updated),
	)
	return stats, nil
}

type importer struct {
	projects   repository.ProjectRepository
	categories repository.CategoryRepository
	terms      repository.TermRepository
	outlinks   repository.OutlinkRepository
	userRepo   repository.UserRepository
	users      *service.UserService
	stats      *Stats
}

func (imp *importer) user(ctx context.Context, doc UserDoc) error {
	if _, err := imp.userRepo.GetByUsername(ctx, doc.Username); err == nil {
		return nil
	} else if !models.IsNotFound(err) {
		return err
	}
	if _, err := imp.users.CreateUser(ctx, service.CreateUserInput{
		Username: doc.Username,
		Password: doc.Password,
		Email:    doc.Email,
		Admin:    doc.Admin,
	}); err != nil {
		return fmt.Errorf("user %s: %w", doc.Username, err)
	}
	imp.stats.Created++
	return nil
}

func (imp *importer) project(ctx context.Context, doc ProjectDoc) error {
	project, err := imp.projects.GetByIdentifier(ctx, doc.Identifier)
	switch {
	case models.IsNotFound(err):
		project = &models.Project{Identifier: doc.Identifier}
		applyProject(project, doc)
		if err := imp.projects.Create(ctx, project); err != nil {
			return err
		}
		imp.stats.Created++
	case err != nil:
		return err
	default:
		applyProject(project, doc)
		if err := imp.projects.Update(ctx, project); err != nil {
			return err
		}
		imp.stats.Updated++
	}

	for _, c := range doc.Categories {
		if err := imp.category(ctx, project, c); err != nil {
			return err
		}
	}
	return nil
}

func applyProject(p *models.Project, doc ProjectDoc) {
	p.Name = doc.Name
	p.Description = doc.Description
	p.Position = doc.Position
}

func (imp *importer) category(ctx context.Context, project *models.Project, doc CategoryDoc) error {
	category, err := imp.categories.GetByIdentifier(ctx, project.ID, doc.Identifier)
	switch {
	case models.IsNotFound(err):
		category = &models.Category{ProjectID: project.ID, Identifier: doc.Identifier}
		applyCategory(category, doc)
		if err := imp.categories.Create(ctx, category); err != nil {
			return err
		}
		imp.stats.Created++
	case err != nil:
		return err
	default:
		applyCategory(category, doc)
		if err := imp.categories.Update(ctx, category); err != nil {
			return err
		}
		imp.stats.Updated++
	}
	imp.stats.Categories = append(imp.stats.Categories, category.ID)

	if err := imp.categoryOutlinks(ctx, category, doc.Outlinks); err != nil {
		return err
	}
	for _, t := range doc.Terms {
		if err := imp.term(ctx, category, t); err != nil {
			return err
		}
	}
	return nil
}

func applyCategory(c *models.Category, doc CategoryDoc) {
	c.Name = doc.Name
	c.Description = doc.Description
	c.Position = doc.Position
	c.Hidden = doc.Hidden
}

// categoryOutlinks adds the outlinks the category does not have yet.
func (imp *importer) categoryOutlinks(ctx context.Context, category *models.Category, docs []OutlinkDoc) error {
	for _, doc := range docs {
		existing, err := imp.outlinks.ListByCategory(ctx, category.ID, doc.Type)
		if err != nil {
			return err
		}
		if hasOutlink(existing, doc) {
			continue
		}
		if err := imp.outlinks.Create(ctx, &models.Outlink{
			CategoryID: category.ID,
			Label:      doc.Label,
			URL:        doc.URL,
			Type:       doc.Type,
		}); err != nil {
			return err
		}
		imp.stats.Created++
	}
	return nil
}

func hasOutlink(existing []models.Outlink, doc OutlinkDoc) bool {
	for _, o := range existing {
		if o.URL == doc.URL && o.Label == doc.Label {
			return true
		}
	}
	return false
}

func (imp *importer) term(ctx context.Context, category *models.Category, doc TermDoc) error {
	ident := doc.Identifier
	if ident == "" {
		ident = strconv.Itoa(doc.Number)
	}

	term, err := imp.terms.GetByIdentifier(ctx, category.ID, ident)
	switch {
	case models.IsNotFound(err):
		term = &models.Term{CategoryID: category.ID, Identifier: ident}
		applyTerm(term, doc)
		if err := imp.terms.Create(ctx, term); err != nil {
			return err
		}
		imp.stats.Created++
	case err != nil:
		return err
	default:
		applyTerm(term, doc)
		if err := imp.terms.Update(ctx, term); err != nil {
			return err
		}
		imp.stats.Updated++
	}
	return nil
}

func applyTerm(t *models.Term, doc TermDoc) {
	t.Number = doc.Number
	t.Label = doc.Label
	t.TextEN = doc.EN
	t.TextJP = doc.JP
	t.Hidden = doc.Hidden
	t.Locked = doc.Locked
	t.LockReason = doc.LockReason
}
