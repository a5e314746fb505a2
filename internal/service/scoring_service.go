package service

import (
	"context"

	"github.com/encukou/prekapavac/internal/models"
	"github.com/encukou/prekapavac/internal/repository"
)

// ScoringService ranks the approved suggestions of a term by community vote.
type ScoringService struct {
	suggestions repository.SuggestionRepository
	votes       repository.VoteRepository
}

// RankedSuggestion is an approved suggestion with its vote tallies and,
// for a signed-in reader, their own vote.
type RankedSuggestion struct {
	models.Suggestion
	NegativeScore int64 `json:"negative_score"`
	MyVote        *int  `json:"my_vote,omitempty"`
	MyVoteValid   *bool `json:"my_vote_valid,omitempty"`
}

func NewScoringService(suggestions repository.SuggestionRepository, votes repository.VoteRepository) *ScoringService {
	return &ScoringService{suggestions: suggestions, votes: votes}
}

// Ranked returns the approved suggestions of term, best first.
func (s *ScoringService) Ranked(ctx context.Context, termID uint) ([]models.Suggestion, error) {
	return s.suggestions.Ranked(ctx, termID)
}

// RankedFor is Ranked with negative tallies and, when userID is non-nil,
// the user's own votes attached.
func (s *ScoringService) RankedFor(ctx context.Context, termID uint, userID *uint) ([]RankedSuggestion, error) {
	ranked, err := s.suggestions.Ranked(ctx, termID)
	if err != nil {
		return nil, err
	}

	var mine map[uint]models.Vote
	if userID != nil {
		if mine, err = s.votes.ListByUserOnTerm(ctx, termID, *userID); err != nil {
			return nil, err
		}
	}

	out := make([]RankedSuggestion, 0, len(ranked))
	for _, sug := range ranked {
		negative, err := s.suggestions.NegativeScore(ctx, sug.ID)
		if err != nil {
			return nil, err
		}
		entry := RankedSuggestion{Suggestion: sug, NegativeScore: negative}
		if v, ok := mine[sug.ID]; ok {
			value, valid := v.Vote, v.Valid
			entry.MyVote = &value
			entry.MyVoteValid = &valid
		}
		out = append(out, entry)
	}
	return out, nil
}

// Score sums the valid votes on a suggestion.
func (s *ScoringService) Score(ctx context.Context, suggestionID uint) (int64, error) {
	return s.suggestions.Score(ctx, suggestionID)
}

// NegativeScore counts the valid votes below zero on a suggestion.
func (s *ScoringService) NegativeScore(ctx context.Context, suggestionID uint) (int64, error) {
	return s.suggestions.NegativeScore(ctx, suggestionID)
}

// UserHasUnrated reports whether the user still has approved suggestions on
// term to rate. Hidden and locked terms never do.
func (s *ScoringService) UserHasUnrated(ctx context.Context, term *models.Term, userID uint) (bool, error) {
	if !term.Open() {
		return false, nil
	}
	return s.suggestions.UserHasUnrated(ctx, term.ID, userID)
}
