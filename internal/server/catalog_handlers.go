package server

import (
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/service"

	"github.com/gofiber/fiber/v2"
)

type categorySummary struct {
	models.Category
	Progress *service.Progress `json:"progress"`
}

type projectSummary struct {
	models.Project
	Categories []categorySummary `json:"categories"`
}

type termSummary struct {
	models.Term
	URL        string `json:"url"`
	HasUnrated *bool  `json:"has_unrated,omitempty"`
}

type termPage struct {
	Project     *models.Project            `json:"project"`
	Category    *models.Category           `json:"category"`
	Term        *models.Term               `json:"term"`
	Path        string                     `json:"path"`
	URL         string                     `json:"url"`
	Prev        *termSummary               `json:"prev"`
	Next        *termSummary               `json:"next"`
	Suggestions []service.RankedSuggestion `json:"suggestions"`
	Comments    []*models.Comment          `json:"comments"`
	Outlinks    []service.ResolvedOutlink  `json:"outlinks"`
	Icon        *service.ResolvedOutlink   `json:"icon"`
	HasUnrated  *bool                      `json:"has_unrated,omitempty"`
}

// GetProjects handles GET /api/projects
func (s *Server) GetProjects(c *fiber.Ctx) error {
	ctx := c.UserContext()
	admin, err := s.viewerIsAdmin(c)
	if err != nil {
		return respondError(c, err)
	}

	listings, err := s.catalog.ListProjects(ctx, admin)
	if err != nil {
		return respondError(c, err)
	}

	out := make([]projectSummary, 0, len(listings))
	for _, l := range listings {
		summary := projectSummary{Project: l.Project, Categories: make([]categorySummary, 0, len(l.Categories))}
		for _, cat := range l.Categories {
			progress, err := s.progress.CategoryProgress(ctx, cat.ID, viewer(c))
			if err != nil {
				return respondError(c, err)
			}
			summary.Categories = append(summary.Categories, categorySummary{Category: cat, Progress: progress})
		}
		out = append(out, summary)
	}
	return c.JSON(out)
}

// GetCategory handles GET /api/projects/:project/:category
func (s *Server) GetCategory(c *fiber.Ctx) error {
	ctx := c.UserContext()
	admin, err := s.viewerIsAdmin(c)
	if err != nil {
		return respondError(c, err)
	}

	project, category, err := s.catalog.ResolveCategory(ctx, c.Params("project"), c.Params("category"), admin)
	if err != nil {
		return respondError(c, err)
	}
	terms, err := s.catalog.Terms(ctx, category.ID, admin)
	if err != nil {
		return respondError(c, err)
	}
	progress, err := s.progress.CategoryProgress(ctx, category.ID, viewer(c))
	if err != nil {
		return respondError(c, err)
	}

	summaries := make([]termSummary, 0, len(terms))
	for i := range terms {
		loc := service.TermLocation{Project: project, Category: category, Term: &terms[i]}
		summary, err := s.summarize(c, &loc)
		if err != nil {
			return respondError(c, err)
		}
		summaries = append(summaries, summary)
	}

	return c.JSON(fiber.Map{
		"project":  project,
		"category": category,
		"progress": progress,
		"terms":    summaries,
	})
}

// GetTerm handles GET /api/projects/:project/:category/:term
func (s *Server) GetTerm(c *fiber.Ctx) error {
	ctx := c.UserContext()
	admin, err := s.viewerIsAdmin(c)
	if err != nil {
		return respondError(c, err)
	}

	loc, err := s.catalog.ResolveTerm(ctx, c.Params("project"), c.Params("category"), c.Params("term"), admin)
	if err != nil {
		return respondError(c, err)
	}
	term := loc.Term

	suggestions, err := s.scoring.RankedFor(ctx, term.ID, viewer(c))
	if err != nil {
		return respondError(c, err)
	}
	comments, err := s.comments.ListComments(ctx, term.ID)
	if err != nil {
		return respondError(c, err)
	}
	outlinks, icon, err := s.catalog.Outlinks(ctx, loc.Category.ID, term)
	if err != nil {
		return respondError(c, err)
	}

	path := loc.Path()
	page := termPage{
		Project:     loc.Project,
		Category:    loc.Category,
		Term:        term,
		Path:        path.Display,
		URL:         path.URL,
		Suggestions: suggestions,
		Comments:    comments,
		Outlinks:    outlinks,
		Icon:        icon,
	}

	prev, next, err := s.catalog.Neighbours(ctx, term, admin)
	if err != nil {
		return respondError(c, err)
	}
	if page.Prev, err = s.neighbour(c, loc, prev); err != nil {
		return respondError(c, err)
	}
	if page.Next, err = s.neighbour(c, loc, next); err != nil {
		return respondError(c, err)
	}

	if uid := viewer(c); uid != nil {
		unrated, err := s.scoring.UserHasUnrated(ctx, term, *uid)
		if err != nil {
			return respondError(c, err)
		}
		page.HasUnrated = &unrated
	}

	return c.JSON(page)
}

// neighbour summarizes an adjacent term, or returns nil at either end.
func (s *Server) neighbour(c *fiber.Ctx, loc *service.TermLocation, term *models.Term) (*termSummary, error) {
	if term == nil {
		return nil, nil
	}
	summary, err := s.summarize(c, &service.TermLocation{Project: loc.Project, Category: loc.Category, Term: term})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Server) summarize(c *fiber.Ctx, loc *service.TermLocation) (termSummary, error) {
	summary := termSummary{Term: *loc.Term, URL: loc.Path().URL}
	if uid := viewer(c); uid != nil {
		unrated, err := s.scoring.UserHasUnrated(c.UserContext(), loc.Term, *uid)
		if err != nil {
			return termSummary{}, err
		}
		summary.HasUnrated = &unrated
	}
	return summary, nil
}
