// Package service holds the glossary's use cases on top of the repositories.
package service

import (
	"context"
	"fmt"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/outlink"
	"github.com/encukou/prekapavac/internal/repository"
)

// CatalogService resolves the project/category/term hierarchy.
type CatalogService struct {
	projects   repository.ProjectRepository
	categories repository.CategoryRepository
	terms      repository.TermRepository
	outlinks   repository.OutlinkRepository
}

// ProjectListing is a project with the categories a reader may see.
type ProjectListing struct {
	Project    models.Project
	Categories []models.Category
}

// TermLocation is a term together with its ancestors.
type TermLocation struct {
	Project  *models.Project
	Category *models.Category
	Term     *models.Term
}

// TermPath is the display path and URL of a term.
type TermPath struct {
	Display string
	URL     string
}

// ResolvedOutlink is an outlink with its template filled for one term.
type ResolvedOutlink struct {
	Label string             `json:"label"`
	URL   string             `json:"url"`
	Type  models.OutlinkType `json:"type"`
}

func NewCatalogService(
	projects repository.ProjectRepository,
	categories repository.CategoryRepository,
	terms repository.TermRepository,
	outlinks repository.OutlinkRepository,
) *CatalogService {
	return &CatalogService{
		projects:   projects,
		categories: categories,
		terms:      terms,
		outlinks:   outlinks,
	}
}

// ListProjects returns all projects by position, each with its categories by
// position. Hidden categories are left out unless includeHidden is set.
func (s *CatalogService) ListProjects(ctx context.Context, includeHidden bool) ([]ProjectListing, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]ProjectListing, 0, len(projects))
	for _, p := range projects {
		categories, err := s.categories.ListByProject(ctx, p.ID, includeHidden)
		if err != nil {
			return nil, err
		}
		out = append(out, ProjectListing{Project: p, Categories: categories})
	}
	return out, nil
}

// ResolveCategory looks up a category by its project and category identifiers.
// A hidden category is NOT_FOUND unless includeHidden is set.
func (s *CatalogService) ResolveCategory(ctx context.Context, projectIdent, categoryIdent string, includeHidden bool) (*models.Project, *models.Category, error) {
	project, err := s.projects.GetByIdentifier(ctx, projectIdent)
	if err != nil {
		return nil, nil, err
	}
	category, err := s.categories.GetByIdentifier(ctx, project.ID, categoryIdent)
	if err != nil {
		return nil, nil, err
	}
	if category.Hidden && !includeHidden {
		return nil, nil, models.NewNotFoundError("Category", categoryIdent)
	}
	return project, category, nil
}

// ResolveTerm looks up a term by the full identifier path. Hidden categories
// and hidden terms are NOT_FOUND unless includeHidden is set.
func (s *CatalogService) ResolveTerm(ctx context.Context, projectIdent, categoryIdent, termIdent string, includeHidden bool) (*TermLocation, error) {
	project, category, err := s.ResolveCategory(ctx, projectIdent, categoryIdent, includeHidden)
	if err != nil {
		return nil, err
	}
	term, err := s.terms.GetByIdentifier(ctx, category.ID, termIdent)
	if err != nil {
		return nil, err
	}
	if term.Hidden && !includeHidden {
		return nil, models.NewNotFoundError("Term", termIdent)
	}
	return &TermLocation{Project: project, Category: category, Term: term}, nil
}

// CheckCategoryScope verifies that category belongs to the project with the
// given identifier. A mismatch is reported as NOT_FOUND.
func (s *CatalogService) CheckCategoryScope(ctx context.Context, projectIdent string, category *models.Category) error {
	project, err := s.projects.GetByID(ctx, category.ProjectID)
	if err != nil {
		return err
	}
	if project.Identifier != projectIdent {
		return models.NewNotFoundError("Category", projectIdent+"/"+category.Identifier)
	}
	return nil
}

// Locate loads the ancestors of term.
func (s *CatalogService) Locate(ctx context.Context, term *models.Term) (*TermLocation, error) {
	category, err := s.categories.GetByID(ctx, term.CategoryID)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.GetByID(ctx, category.ProjectID)
	if err != nil {
		return nil, err
	}
	return &TermLocation{Project: project, Category: category, Term: term}, nil
}

// TermPath renders project/category/term for display and as a URL path.
func (s *CatalogService) TermPath(ctx context.Context, term *models.Term) (TermPath, error) {
	loc, err := s.Locate(ctx, term)
	if err != nil {
		return TermPath{}, err
	}
	return loc.Path(), nil
}

// Path renders the location for display and as a URL path.
func (l *TermLocation) Path() TermPath {
	display := fmt.Sprintf("%s/%s/%s", l.Project.Identifier, l.Category.Identifier, l.Term.Identifier)
	return TermPath{Display: display, URL: "/" + display + "/"}
}

// Neighbours returns the nearest previous and next terms of the category;
// either may be nil. Hidden terms are passed over unless includeHidden is set.
func (s *CatalogService) Neighbours(ctx context.Context, term *models.Term, includeHidden bool) (prev, next *models.Term, err error) {
	if prev, err = s.terms.Prev(ctx, term, includeHidden); err != nil {
		return nil, nil, err
	}
	if next, err = s.terms.Next(ctx, term, includeHidden); err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

// Terms lists the terms of a category by number.
func (s *CatalogService) Terms(ctx context.Context, categoryID uint, includeHidden bool) ([]models.Term, error) {
	return s.terms.ListByCategory(ctx, categoryID, includeHidden)
}

// Outlinks fills the category's link outlinks and its icon for term. icon is
// nil when the category has none.
func (s *CatalogService) Outlinks(ctx context.Context, categoryID uint, term *models.Term) (links []ResolvedOutlink, icon *ResolvedOutlink, err error) {
	raw, err := s.outlinks.ListByCategory(ctx, categoryID, models.OutlinkLink)
	if err != nil {
		return nil, nil, err
	}

	links = make([]ResolvedOutlink, 0, len(raw))
	for _, o := range raw {
		resolved, err := resolveOutlink(o, term)
		if err != nil {
			return nil, nil, err
		}
		links = append(links, resolved)
	}

	rawIcon, err := s.outlinks.Icon(ctx, categoryID)
	if err != nil {
		return nil, nil, err
	}
	if rawIcon != nil {
		resolved, err := resolveOutlink(*rawIcon, term)
		if err != nil {
			return nil, nil, err
		}
		icon = &resolved
	}
	return links, icon, nil
}

func resolveOutlink(o models.Outlink, term *models.Term) (ResolvedOutlink, error) {
	url, err := outlink.Resolve(o.URL, term)
	if err != nil {
		return ResolvedOutlink{}, models.WrapValidationError(fmt.Sprintf("outlink %d has an invalid template", o.ID), err)
	}
	return ResolvedOutlink{Label: o.Label, URL: url, Type: o.Type}, nil
}
