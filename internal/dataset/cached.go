package dataset

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/genre-tester/backend/pkg/logger"
)

// Cached memoizes successful counts so repeated training runs do not walk the
// dataset again.
type Cached struct {
	next  Catalog
	cache *cache.Cache
}

func NewCached(next Catalog, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Count(ctx context.Context, p string) (int, error) {
	if n, found := c.cache.Get(p); found {
		return n.(int), nil
	}

	n, err := c.next.Count(ctx, p)
	if err != nil {
		return 0, err
	}

	c.cache.Set(p, n, cache.DefaultExpiration)
	logger.Debug("Dataset count cached", zap.String("path", p), zap.Int("count", n))
	return n, nil
}
