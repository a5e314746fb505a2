package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/encukou/prekapavac/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func limitedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/vote", handler, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func hit(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/vote", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	store, _ := setupStore(t)
	app := limitedApp(RateLimit(store, 2, time.Minute, "vote"))

	assert.Equal(t, http.StatusOK, hit(t, app))
	assert.Equal(t, http.StatusOK, hit(t, app))
	assert.Equal(t, http.StatusTooManyRequests, hit(t, app))
}

func TestRateLimit_WindowExpires(t *testing.T) {
	store, mr := setupStore(t)
	app := limitedApp(RateLimit(store, 1, time.Minute, "vote"))

	assert.Equal(t, http.StatusOK, hit(t, app))
	assert.Equal(t, http.StatusTooManyRequests, hit(t, app))

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, hit(t, app))
}

func TestRateLimit_FailOpenWithoutRedis(t *testing.T) {
	app := limitedApp(RateLimit(nil, 1, time.Minute, "vote"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(t, app))
	}
}

func TestRateLimit_FailOpenWhenRedisDies(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	store := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	t.Cleanup(func() { _ = store.Close() })
	app := limitedApp(RateLimit(store, 1, time.Minute, "vote"))
	mr.Close()

	assert.Equal(t, http.StatusOK, hit(t, app))
	assert.Equal(t, http.StatusOK, hit(t, app))
}

func TestRateLimit_FailClosed(t *testing.T) {
	app := limitedApp(RateLimitWithPolicy(nil, 1, time.Minute, FailClosed, "vote"))
	assert.Equal(t, http.StatusServiceUnavailable, hit(t, app))
}

func TestRateLimit_DisabledLimit(t *testing.T) {
	store, _ := setupStore(t)
	app := limitedApp(RateLimit(store, 0, time.Minute, "vote"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, hit(t, app))
	}
}

func TestRateLimit_KeysByUser(t *testing.T) {
	store, _ := setupStore(t)

	app := fiber.New()
	app.Get("/vote", func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, uint(c.QueryInt("user")))
		return c.Next()
	}, RateLimit(store, 1, time.Minute, "vote"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	get := func(user string) int {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/vote?user="+user, nil))
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("1"))
	assert.Equal(t, http.StatusOK, get("2"))
	assert.Equal(t, http.StatusTooManyRequests, get("1"))
}
