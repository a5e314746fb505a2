package server

import (
	"github.com/encukou/prekapavac/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	Text string `json:"text"`
}

// CreateComment handles POST /api/terms/:termId/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	termID, err := parseID(c, "termId")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.comments.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID: currentUser(c),
		TermID: termID,
		Text:   req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if _, err := s.comments.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUser(c),
		CommentID: commentID,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
