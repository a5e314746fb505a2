package server

import (
	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createSuggestionRequest struct {
	Text        string `json:"text"`
	Description string `json:"description"`
}

type castVoteRequest struct {
	Vote *int `json:"vote"`
}

type changeStatusRequest struct {
	Status models.SuggestionStatus `json:"status"`
}

// CreateSuggestion handles POST /api/terms/:termId/suggestions
func (s *Server) CreateSuggestion(c *fiber.Ctx) error {
	termID, err := parseID(c, "termId")
	if err != nil {
		return nil
	}
	var req createSuggestionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	suggestion, err := s.suggestions.Create(c.UserContext(), service.CreateSuggestionInput{
		UserID:      currentUser(c),
		TermID:      termID,
		Text:        req.Text,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(suggestion)
}

// CastVote handles PUT /api/suggestions/:suggestionId/vote
func (s *Server) CastVote(c *fiber.Ctx) error {
	suggestionID, err := parseID(c, "suggestionId")
	if err != nil {
		return nil
	}
	var req castVoteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Vote == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("vote is required"))
	}

	ctx := c.UserContext()
	vote, err := s.votes.Cast(ctx, service.CastVoteInput{
		UserID:       currentUser(c),
		SuggestionID: suggestionID,
		Value:        *req.Vote,
	})
	if err != nil {
		return respondError(c, err)
	}

	score, err := s.scoring.Score(ctx, suggestionID)
	if err != nil {
		return respondError(c, err)
	}
	negative, err := s.scoring.NegativeScore(ctx, suggestionID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"vote":           vote,
		"score":          score,
		"negative_score": negative,
	})
}

// ListSuggestionsForModeration handles GET /api/admin/terms/:termId/suggestions
func (s *Server) ListSuggestionsForModeration(c *fiber.Ctx) error {
	termID, err := parseID(c, "termId")
	if err != nil {
		return nil
	}
	suggestions, err := s.suggestions.ListForModeration(c.UserContext(), currentUser(c), termID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(suggestions)
}

// ChangeSuggestionStatus handles PATCH /api/admin/suggestions/:suggestionId/status
func (s *Server) ChangeSuggestionStatus(c *fiber.Ctx) error {
	suggestionID, err := parseID(c, "suggestionId")
	if err != nil {
		return nil
	}
	var req changeStatusRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	suggestion, err := s.suggestions.ChangeStatus(c.UserContext(), service.ChangeStatusInput{
		ActorID:      currentUser(c),
		SuggestionID: suggestionID,
		Status:       req.Status,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(suggestion)
}

// InvalidateVote handles DELETE /api/admin/suggestions/:suggestionId/votes/:userId
func (s *Server) InvalidateVote(c *fiber.Ctx) error {
	suggestionID, err := parseID(c, "suggestionId")
	if err != nil {
		return nil
	}
	userID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.votes.Invalidate(c.UserContext(), service.InvalidateVoteInput{
		ActorID:      currentUser(c),
		SuggestionID: suggestionID,
		UserID:       userID,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
