package geo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// Cache stores serialized routes. Get reports a miss with ok == false and a
// nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedRouter memoises another Router. Cache failures are logged and the
// call falls through to the wrapped router.
type CachedRouter struct {
	next   Router
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRouter wraps next with cache.
func NewCachedRouter(next Router, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedRouter {
	return &CachedRouter{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Route implements Router.
func (c *CachedRouter) Route(ctx context.Context, stops ...string) (Route, error) {
	key := cacheKey(stops)

	raw, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "route cache read failed", "key", key, "error", err)
	case ok:
		var r Route
		if err := json.Unmarshal(raw, &r); err == nil {
			return r, nil
		}
		c.logger.WarnContext(ctx, "route cache entry unreadable", "key", key)
	}

	r, err := c.next.Route(ctx, stops...)
	if err != nil {
		return Route{}, err
	}

	if raw, err := json.Marshal(r); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "route cache write failed", "key", key, "error", err)
		}
	}
	return r, nil
}

// cacheKey normalises stops so trivially different spellings share an entry.
func cacheKey(stops []string) string {
	norm := make([]string, len(stops))
	for i, s := range stops {
		norm[i] = strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	sum := sha256.Sum256([]byte(strings.Join(norm, "\x00")))
	return "route:" + hex.EncodeToString(sum[:])
}
