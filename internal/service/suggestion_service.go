package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/observability"
	"github.com/encukou/prekapavac/internal/repository"
)

const (
	maxSuggestionLen  = 2000
	maxDescriptionLen = 10000
)

// SuggestionService submits and moderates suggestions.
type SuggestionService struct {
	suggestions repository.SuggestionRepository
	terms       repository.TermRepository
	progress    *ProgressService
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateSuggestionInput struct {
	UserID      uint
	TermID      uint
	Text        string
	Description string
}

type ChangeStatusInput struct {
	ActorID      uint
	SuggestionID uint
	Status       models.SuggestionStatus
}

func NewSuggestionService(
	suggestions repository.SuggestionRepository,
	terms repository.TermRepository,
	progress *ProgressService,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *SuggestionService {
	return &SuggestionService{
		suggestions: suggestions,
		terms:       terms,
		progress:    progress,
		isAdmin:     isAdmin,
	}
}

// Create submits a new suggestion for moderation. Hidden terms and terms of
// hidden categories are NOT_FOUND; locked terms refuse new suggestions.
func (s *SuggestionService) Create(ctx context.Context, in CreateSuggestionInput) (_ *models.Suggestion, err error) {
	span, ctx := observability.NewSpan(ctx, "SuggestionService.Create",
		observability.TermAttr(in.TermID),
		observability.UserAttr(in.UserID),
	)
	defer func() { span.Finish(err) }()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if utf8.RuneCountInString(text) > maxSuggestionLen {
		return nil, models.NewValidationError(fmt.Sprintf("Suggestion too long (max %d characters)", maxSuggestionLen))
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return nil, models.NewValidationError(fmt.Sprintf("Description too long (max %d characters)", maxDescriptionLen))
	}

	term, err := s.terms.GetVisible(ctx, in.TermID)
	if err != nil {
		return nil, err
	}
	if term.Locked {
		return nil, lockedError(term)
	}

	suggestion := &models.Suggestion{
		TermID:      term.ID,
		UserID:      in.UserID,
		Text:        text,
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusNew,
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, err
	}

	observability.SuggestionsCreated.Inc()
	return suggestion, nil
}

// ChangeStatus moves a suggestion through the moderation state machine.
// Only administrators may do so. Moving to the current status is a no-op.
func (s *SuggestionService) ChangeStatus(ctx context.Context, in ChangeStatusInput) (_ *models.Suggestion, err error) {
	span, ctx := observability.NewSpan(ctx, "SuggestionService.ChangeStatus",
		observability.SuggestionAttr(in.SuggestionID),
		observability.AttrKeyStatus.String(string(in.Status)),
	)
	defer func() { span.Finish(err) }()

	if err := requireAdmin(ctx, s.isAdmin, in.ActorID, "Only administrators can moderate suggestions"); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown status %q", in.Status))
	}

	suggestion, err := s.suggestions.GetByID(ctx, in.SuggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status == in.Status {
		return suggestion, nil
	}
	if !suggestion.Status.CanTransitionTo(in.Status) {
		return nil, models.NewValidationError(fmt.Sprintf("cannot move suggestion from %s to %s", suggestion.Status, in.Status))
	}

	if err := s.suggestions.UpdateStatus(ctx, suggestion.ID, in.Status); err != nil {
		return nil, err
	}
	observability.StatusTransitions.WithLabelValues(string(in.Status)).Inc()

	if suggestion.Status == models.StatusApproved || in.Status == models.StatusApproved {
		term, err := s.terms.GetByID(ctx, suggestion.TermID)
		if err != nil {
			observability.Logger.WarnContext(ctx, "progress cache not invalidated",
				slog.Uint64("suggestion_id", uint64(suggestion.ID)),
				slog.String("error", err.Error()),
			)
		} else {
			s.progress.InvalidateCategory(ctx, term.CategoryID)
		}
	}

	return s.suggestions.GetByID(ctx, suggestion.ID)
}

// ListForModeration returns every suggestion on a term regardless of status.
func (s *SuggestionService) ListForModeration(ctx context.Context, actorID, termID uint) ([]models.Suggestion, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID, "Only administrators can list all suggestions"); err != nil {
		return nil, err
	}
	return s.suggestions.ListByTerm(ctx, termID)
}

func lockedError(term *models.Term) error {
	msg := "Term is locked"
	if term.LockReason != "" {
		msg += ": " + term.LockReason
	}
	return models.NewValidationError(msg)
}

func requireAdmin(ctx context.Context, isAdmin func(context.Context, uint) (bool, error), userID uint, msg string) error {
	if isAdmin == nil {
		return models.NewForbiddenError(msg)
	}
	admin, err := isAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewForbiddenError(msg)
	}
	return nil
}
