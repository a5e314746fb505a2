package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	comments repository.CommentRepository
	terms    repository.TermRepository
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID uint
	TermID uint
	Text   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	comments repository.CommentRepository,
	terms repository.TermRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		comments: comments,
		terms:    terms,
		isAdmin:  isAdmin,
	}
}

// CreateComment adds a comment to a term. Locked terms stay open for
// discussion; hidden terms and terms of hidden categories are NOT_FOUND.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", maxCommentLen))
	}

	term, err := s.terms.GetVisible(ctx, in.TermID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TermID: term.ID,
		UserID: in.UserID,
		Text:   text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.comments.GetByID(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, termID uint) ([]*models.Comment, error) {
	return s.comments.ListByTerm(ctx, termID)
}

// DeleteComment soft-deletes a comment. Authors may delete their own
// comments, administrators any comment.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, models.NewNotFoundError("Comment", in.CommentID)
	}

	if comment.UserID != in.UserID {
		if err := requireAdmin(ctx, s.isAdmin, in.UserID, "You can only delete your own comments"); err != nil {
			return nil, err
		}
	}

	if err := s.comments.SoftDelete(ctx, comment.ID); err != nil {
		return nil, err
	}
	comment.Deleted = true
	return comment, nil
}
