package redis

import (
	"context"
	"errors"

	"github.com/learnloop/learnloop-core/internal/domain/content"
)

// ContentCache caches content nodes. The catalog is immutable, so
// entries are never invalidated, only expired.
type ContentCache struct {
	cache *Cache
}

// NewContentCache creates a ContentCache over a Cache.
func NewContentCache(cache *Cache) *ContentCache {
	return &ContentCache{cache: cache}
}

// GetNode returns a cached node. The bool reports a hit.
func (c *ContentCache) GetNode(ctx context.Context, id string) (*content.Node, bool, error) {
	var node content.Node
	err := c.cache.Get(ctx, PrefixContent+id, &node)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &node, true, nil
}

// SetNode caches a node with the content TTL.
func (c *ContentCache) SetNode(ctx context.Context, n *content.Node) error {
	return c.cache.Set(ctx, PrefixContent+n.ID, n, TTLContentCache)
}
