package external

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"ctxgraph/internal/logging"
)

type cached struct {
	text  string
	found bool
}

// CachedLoader memoizes another loader's results, including misses. The
// watch mode reuses one loader across many assemblies.
type CachedLoader struct {
	next  Loader
	cache *lru.Cache[string, cached]
}

// NewCachedLoader wraps next with an LRU of the given size.
func NewCachedLoader(next Loader, size int) (*CachedLoader, error) {
	cache, err := lru.New[string, cached](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create external cache: %w", err)
	}
	return &CachedLoader{next: next, cache: cache}, nil
}

// Load returns the cached result for ref or asks the wrapped loader.
// Results from a cancelled context are not cached.
func (c *CachedLoader) Load(ctx context.Context, ref string) (string, bool) {
	if v, ok := c.cache.Get(ref); ok {
		logging.ExternalDebug("Cache hit for %s", ref)
		return v.text, v.found
	}
	text, found := c.next.Load(ctx, ref)
	if ctx.Err() == nil {
		c.cache.Add(ref, cached{text: text, found: found})
	}
	return text, found
}

// Purge drops every cached entry.
func (c *CachedLoader) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached entries.
func (c *CachedLoader) Len() int {
	return c.cache.Len()
}
