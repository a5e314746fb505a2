package service

import (
	"context"
	"errors"
	"testing"

	"github.com/encukou/prekapavac/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// voteRepoStub is a stub for repository.VoteRepository.
type voteRepoStub struct {
	getFn         func(context.Context, uint, uint) (*models.Vote, error)
	createFn      func(context.Context, *models.Vote) error
	updateValueFn func(context.Context, uint, uint, int) error
	invalidateFn  func(context.Context, uint, uint) error
}

func (s *voteRepoStub) Get(ctx context.Context, suggestionID, userID uint) (*models.Vote, error) {
	return s.getFn(ctx, suggestionID, userID)
}
func (s *voteRepoStub) Create(ctx context.Context, vote *models.Vote) error {
	return s.createFn(ctx, vote)
}
func (s *voteRepoStub) UpdateValue(ctx context.Context, suggestionID, userID uint, value int) error {
	return s.updateValueFn(ctx, suggestionID, userID, value)
}
func (s *voteRepoStub) Invalidate(ctx context.Context, suggestionID, userID uint) error {
	return s.invalidateFn(ctx, suggestionID, userID)
}
func (s *voteRepoStub) ListBySuggestion(_ context.Context, _ uint) ([]models.Vote, error) {
	return nil, nil
}
func (s *voteRepoStub) ListByUserOnTerm(_ context.Context, _, _ uint) (map[uint]models.Vote, error) {
	return nil, nil
}

func noopVoteRepo() *voteRepoStub {
	return &voteRepoStub{
		getFn: func(_ context.Context, sid, uid uint) (*models.Vote, error) {
			return &models.Vote{SuggestionID: sid, UserID: uid}, nil
		},
		createFn:      func(_ context.Context, _ *models.Vote) error { return nil },
		updateValueFn: func(_ context.Context, _, _ uint, _ int) error { return nil },
		invalidateFn:  func(_ context.Context, _, _ uint) error { return nil },
	}
}

func TestVoteService_CastRetriesAsUpdateOnConflict(t *testing.T) {
	t.Parallel()

	votes := noopVoteRepo()
	votes.createFn = func(_ context.Context, _ *models.Vote) error {
		return models.NewConstraintViolationError("vote already exists", errors.New("duplicate key"))
	}
	var updated int
	votes.updateValueFn = func(_ context.Context, _, _ uint, value int) error {
		updated = value
		return nil
	}
	votes.getFn = func(_ context.Context, sid, uid uint) (*models.Vote, error) {
		return &models.Vote{SuggestionID: sid, UserID: uid, Vote: updated, Valid: true}, nil
	}

	svc := NewVoteService(votes, approvedSuggestionRepo(), openTermRepo(), nil)
	vote, err := svc.Cast(context.Background(), CastVoteInput{UserID: 2, SuggestionID: 1, Value: models.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, models.VoteDown, updated)
	assert.Equal(t, models.VoteDown, vote.Vote)
}

func TestVoteService_CastPropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	votes := noopVoteRepo()
	votes.createFn = func(_ context.Context, _ *models.Vote) error { return boom }
	votes.updateValueFn = func(_ context.Context, _, _ uint, _ int) error {
		t.Fatal("update must not run after a storage failure")
		return nil
	}

	svc := NewVoteService(votes, approvedSuggestionRepo(), openTermRepo(), nil)
	_, err := svc.Cast(context.Background(), CastVoteInput{UserID: 2, SuggestionID: 1, Value: models.VoteUp})
	assert.ErrorIs(t, err, boom)
}

func TestVoteService_CastValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()
		svc := NewVoteService(noopVoteRepo(), approvedSuggestionRepo(), openTermRepo(), nil)
		_, err := svc.Cast(ctx, CastVoteInput{UserID: 1, SuggestionID: 1, Value: 5})
		assertValidationError(t, err)
	})

	t.Run("suggestion not approved", func(t *testing.T) {
		t.Parallel()
		suggestions := approvedSuggestionRepo()
		suggestions.getByIDFn = func(_ context.Context, id uint) (*models.Suggestion, error) {
			return &models.Suggestion{ID: id, TermID: 1, Status: models.StatusNew}, nil
		}
		svc := NewVoteService(noopVoteRepo(), suggestions, openTermRepo(), nil)
		_, err := svc.Cast(ctx, CastVoteInput{UserID: 1, SuggestionID: 1, Value: models.VoteUp})
		assertValidationError(t, err)
	})

	t.Run("locked term", func(t *testing.T) {
		t.Parallel()
		terms := openTermRepo()
		terms.getByIDFn = func(_ context.Context, id uint) (*models.Term, error) {
			return &models.Term{ID: id, Locked: true, LockReason: "final release"}, nil
		}
		svc := NewVoteService(noopVoteRepo(), approvedSuggestionRepo(), terms, nil)
		_, err := svc.Cast(ctx, CastVoteInput{UserID: 1, SuggestionID: 1, Value: models.VoteUp})
		assertValidationError(t, err)
		assert.Contains(t, err.Error(), "final release")
	})

	t.Run("hidden term", func(t *testing.T) {
		t.Parallel()
		terms := openTermRepo()
		terms.getByIDFn = func(_ context.Context, id uint) (*models.Term, error) {
			return &models.Term{ID: id, Hidden: true}, nil
		}
		svc := NewVoteService(noopVoteRepo(), approvedSuggestionRepo(), terms, nil)
		_, err := svc.Cast(ctx, CastVoteInput{UserID: 1, SuggestionID: 1, Value: models.VoteUp})
		assert.True(t, models.IsNotFound(err))
	})
}

func TestVoteService_RecastReplacesValue(t *testing.T) {
	g := newGlossary(t)
	s := g.seed(t)
	ctx := context.Background()
	u := g.user(t, "u1")
	sug := g.approved(t, s, u, "Sword")

	for _, v := range []int{models.VoteUp, models.VoteUp, models.VoteDown, models.VoteNeutral, models.VoteUp} {
		vote, err := g.votes.Cast(ctx, CastVoteInput{UserID: u.ID, SuggestionID: sug.ID, Value: v})
		require.NoError(t, err)
		assert.Equal(t, v, vote.Vote)
	}

	var rows int64
	require.NoError(t, g.db.Model(&models.Vote{}).Where("suggestion_id = ?", sug.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	score, err := g.scoring.Score(ctx, sug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), score)
}

func TestVoteService_InvalidatedVoteStaysInvalid(t *testing.T) {
	g := newGlossary(t)
	s := g.seed(t)
	ctx := context.Background()
	u := g.user(t, "u1")
	sug := g.approved(t, s, u, "Sword")

	_, err := g.votes.Cast(ctx, CastVoteInput{UserID: u.ID, SuggestionID: sug.ID, Value: models.VoteUp})
	require.NoError(t, err)

	err = g.votes.Invalidate(ctx, InvalidateVoteInput{ActorID: u.ID, SuggestionID: sug.ID, UserID: u.ID})
	assertForbiddenError(t, err)

	require.NoError(t, g.votes.Invalidate(ctx, InvalidateVoteInput{ActorID: s.admin.ID, SuggestionID: sug.ID, UserID: u.ID}))

	vote, err := g.votes.Cast(ctx, CastVoteInput{UserID: u.ID, SuggestionID: sug.ID, Value: models.VoteUp})
	require.NoError(t, err)
	assert.False(t, vote.Valid)

	score, err := g.scoring.Score(ctx, sug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), score)
}
