package ratelimit

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newApp(rl *RateLimiter) *fiber.App {
	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/api/models", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func get(t *testing.T, app *fiber.App, path, client string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("X-Client-ID", client)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimiter_LimitsAndRefills(t *testing.T) {
	clk := &fakeNow{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := New(Config{MaxRequestsPerMinute: 3, Now: clk.Now, SkipPaths: []string{"/api/health"}})
	defer rl.Stop()
	app := newApp(rl)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 200, get(t, app, "/api/models", "a"))
	}
	assert.Equal(t, 429, get(t, app, "/api/models", "a"))
	assert.Equal(t, 200, get(t, app, "/api/models", "b"))
	assert.Equal(t, 200, get(t, app, "/api/health", "a"))

	clk.Advance(20 * time.Second)
	assert.Equal(t, 200, get(t, app, "/api/models", "a"))
	assert.Equal(t, 429, get(t, app, "/api/models", "a"))
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	clk := &fakeNow{t: time.Now()}
	rl := New(Config{MaxRequestsPerMinute: 1, Now: clk.Now})
	defer rl.Stop()

	allowed, _ := rl.allow("x")
	assert.True(t, allowed)
	clk.Advance(11 * time.Minute)
	rl.evictIdle(10 * time.Minute)

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Empty(t, rl.buckets)
}

func TestRateLimiter_KeysSurviveLaterRequests(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1})
	defer rl.Stop()
	app := newApp(rl)

	assert.Equal(t, 200, get(t, app, "/api/models", "alpha"))
	assert.Equal(t, 200, get(t, app, "/api/models", "bravo"))
	assert.Equal(t, 429, get(t, app, "/api/models", "alpha"))

	rl.mu.RLock()
	defer rl.mu.RUnlock()
	assert.Contains(t, rl.buckets, "alpha")
	assert.Contains(t, rl.buckets, "bravo")
	assert.Len(t, rl.buckets, 2)
}
