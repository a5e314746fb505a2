package service

import (
	"context"
	"time"

	"github.com/encukou/prekapavac/internal/cache"
	"github.com/encukou/prekapavac/internal/repository"
)

// Progress is how far a category's review has come. Rated is only
// meaningful when HasUser is set.
type Progress struct {
	CategoryID uint  `json:"category_id"`
	Total      int64 `json:"total"`
	Rated      int64 `json:"rated"`
	HasUser    bool  `json:"has_user"`
}

// Remaining is the number of countable suggestions the user has yet to rate.
func (p Progress) Remaining() int64 {
	if !p.HasUser {
		return p.Total
	}
	return p.Total - p.Rated
}

// ProgressService answers completion queries. Category totals are cached;
// per-user counts always hit the database.
type ProgressService struct {
	repo  repository.ProgressRepository
	store *cache.Store
	ttl   time.Duration
}

func NewProgressService(repo repository.ProgressRepository, store *cache.Store, ttl time.Duration) *ProgressService {
	return &ProgressService{repo: repo, store: store, ttl: ttl}
}

// CategoryProgress counts the approved suggestions on open terms of the
// category and, when userID is non-nil, how many of them the user holds a
// valid vote on.
func (s *ProgressService) CategoryProgress(ctx context.Context, categoryID uint, userID *uint) (*Progress, error) {
	total, err := s.total(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	p := &Progress{CategoryID: categoryID, Total: total}
	if userID == nil {
		return p, nil
	}

	rated, err := s.repo.CountRatedSuggestions(ctx, categoryID, *userID)
	if err != nil {
		return nil, err
	}
	if rated > p.Total {
		// The cached total is stale.
		s.InvalidateCategory(ctx, categoryID)
		if p.Total, err = s.total(ctx, categoryID); err != nil {
			return nil, err
		}
	}
	p.Rated = rated
	p.HasUser = true
	return p, nil
}

func (s *ProgressService) total(ctx context.Context, categoryID uint) (int64, error) {
	var total int64
	err := s.store.Aside(ctx, cache.CategoryProgressKey(categoryID), &total, s.ttl, func() error {
		var err error
		total, err = s.repo.CountSuggestions(ctx, categoryID)
		return err
	})
	return total, err
}

// InvalidateCategory drops the cached total of a category.
func (s *ProgressService) InvalidateCategory(ctx context.Context, categoryID uint) {
	if s == nil {
		return
	}
	s.store.Invalidate(ctx, cache.CategoryProgressKey(categoryID))
}
