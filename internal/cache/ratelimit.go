package cache

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by operations that need a live Redis server.
var ErrDisabled = errors.New("cache disabled")

// CheckRateLimit counts one hit of resource by id in a fixed window and
// reports whether the caller is still within limit. A non-positive limit
// disables the check.
func (s *Store) CheckRateLimit(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	if !s.Enabled() {
		return false, ErrDisabled
	}

	key := RateLimitKey(resource, id)
	cnt, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		s.client.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}
