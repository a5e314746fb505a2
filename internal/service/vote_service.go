package service

import (
	"context"
	"fmt"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"
	"github.com/encukou/prekapavac/internal/repository"
)

// VoteService records and moderates votes.
type VoteService struct {
	votes       repository.VoteRepository
	suggestions repository.SuggestionRepository
	terms       repository.TermRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CastVoteInput struct {
	UserID       uint
	SuggestionID uint
	Value        int
}

type InvalidateVoteInput struct {
	ActorID      uint
	SuggestionID uint
	UserID       uint
}

func NewVoteService(
	votes repository.VoteRepository,
	suggestions repository.SuggestionRepository,
	terms repository.TermRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *VoteService {
	return &VoteService{
		votes:       votes,
		suggestions: suggestions,
		terms:       terms,
		isAdmin:     isAdmin,
	}
}

// Cast records the user's vote on an approved suggestion of an open term.
// Terms a reader cannot open (hidden, or in a hidden category) are NOT_FOUND.
// A user holds one vote per suggestion: casting again replaces the value.
// A vote invalidated by a moderator stays invalid when recast.
func (s *VoteService) Cast(ctx context.Context, in CastVoteInput) (_ *models.Vote, err error) {
	span, ctx := observability.NewSpan(ctx, "VoteService.Cast",
		observability.SuggestionAttr(in.SuggestionID),
		observability.UserAttr(in.UserID),
		observability.AttrKeyVote.Int(in.Value),
	)
	defer func() { span.Finish(err) }()

	if !models.ValidVoteValue(in.Value) {
		return nil, models.NewValidationError(fmt.Sprintf("vote must be between %d and %d", models.VoteDown, models.VoteUp))
	}

	suggestion, err := s.suggestions.GetByID(ctx, in.SuggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status != models.StatusApproved {
		return nil, models.NewValidationError("Only approved suggestions can be rated")
	}

	term, err := s.terms.GetVisible(ctx, suggestion.TermID)
	if err != nil {
		return nil, err
	}
	if term.Locked {
		return nil, lockedError(term)
	}

	vote := &models.Vote{
		SuggestionID: suggestion.ID,
		UserID:       in.UserID,
		Vote:         in.Value,
		Valid:        true,
	}
	err = s.votes.Create(ctx, vote)
	switch {
	case err == nil:
		observability.VotesCast.WithLabelValues("created").Inc()
		return vote, nil
	case models.IsConstraintViolation(err):
		observability.VoteConflictRetries.Inc()
	default:
		return nil, err
	}

	if err := s.votes.UpdateValue(ctx, suggestion.ID, in.UserID, in.Value); err != nil {
		return nil, err
	}
	observability.VotesCast.WithLabelValues("updated").Inc()
	return s.votes.Get(ctx, suggestion.ID, in.UserID)
}

// Invalidate stops a vote from counting while keeping its row. Only
// administrators may do so.
func (s *VoteService) Invalidate(ctx context.Context, in InvalidateVoteInput) (err error) {
	span, ctx := observability.NewSpan(ctx, "VoteService.Invalidate",
		observability.SuggestionAttr(in.SuggestionID),
		observability.UserAttr(in.UserID),
	)
	defer func() { span.Finish(err) }()

	if err := requireAdmin(ctx, s.isAdmin, in.ActorID, "Only administrators can invalidate votes"); err != nil {
		return err
	}
	return s.votes.Invalidate(ctx, in.SuggestionID, in.UserID)
}
