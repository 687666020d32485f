package fetch

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// Prober reports whether a URL is reachable.
type Prober interface {
	Check(ctx context.Context, rawURL string) bool
}

// CachedChecker remembers reachability verdicts for a while so repeated refreshes
// do not re-probe the same links.
type CachedChecker struct {
	next  Prober
	cache *cache.Cache
}

// NewCachedChecker wraps next with a TTL cache.
func NewCachedChecker(next Prober, ttl time.Duration) *CachedChecker {
	return &CachedChecker{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Check returns the cached verdict for rawURL or probes it.
// Verdicts reached after ctx was cancelled are not cached.
func (c *CachedChecker) Check(ctx context.Context, rawURL string) bool {
	if v, ok := c.cache.Get(rawURL); ok {
		if available, ok := v.(bool); ok {
			return available
		}
	}

	available := c.next.Check(ctx, rawURL)
	if ctx.Err() == nil {
		c.cache.Set(rawURL, available, cache.DefaultExpiration)
	}
	return available
}

// Forget drops any cached verdict for rawURL.
func (c *CachedChecker) Forget(rawURL string) {
	c.cache.Delete(rawURL)
}
