// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"

	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET CONTENT QUERY
// Serves a content node, cache-first. Video nodes additionally carry
// resolved storage links; a resolver failure degrades to links-less
// delivery rather than failing the whole read.
// ══════════════════════════════════════════════════════════════════════════════

// NodeCache is a read-through cache for content nodes.
// Implemented by the Redis content cache.
type NodeCache interface {
	// GetNode returns a cached node. The bool reports a hit.
	GetNode(ctx context.Context, id string) (*content.Node, bool, error)

	// SetNode caches a node.
	SetNode(ctx context.Context, n *content.Node) error
}

// GetContentQuery identifies the requested node.
type GetContentQuery struct {
	LearnerID     string
	ContentNodeID string
}

// GetContentResult is the deliverable node.
type GetContentResult struct {
	Node *content.Node

	// Links is set only for video nodes, and only when the resolver
	// succeeded. Nil links on a video node mean degraded delivery.
	Links *content.VideoLinks
}

// GetContentHandler handles the GetContentQuery.
type GetContentHandler struct {
	contentRepo content.Repository
	cache       NodeCache
	resolver    content.LinkResolver
	log         *logger.Logger
}

// NewGetContentHandler creates a new GetContentHandler.
func NewGetContentHandler(
	contentRepo content.Repository,
	cache NodeCache,
	resolver content.LinkResolver,
	log *logger.Logger,
) *GetContentHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetContentHandler{
		contentRepo: contentRepo,
		cache:       cache,
		resolver:    resolver,
		log:         log.With(logger.Component("query.get_content")),
	}
}

// Handle executes the query.
func (h *GetContentHandler) Handle(ctx context.Context, q GetContentQuery) (*GetContentResult, error) {
	if q.ContentNodeID == "" {
		return nil, shared.NewDomainError("content", "Get", shared.ErrValidation, "content node ID is required")
	}

	node, err := h.lookupNode(ctx, q.ContentNodeID)
	if err != nil {
		return nil, err
	}

	result := &GetContentResult{Node: node}

	if node.HasVideo() && h.resolver != nil {
		links, err := h.resolver.Resolve(ctx, node.FileRef)
		if err != nil {
			// Degrade: the node is still served, just without links.
			h.log.Warn("link resolution failed, serving without links",
				logger.ContentNodeID(node.ID),
				logger.Err(err),
			)
		} else {
			result.Links = links
		}
	}

	return result, nil
}

// lookupNode reads through the cache. Cache failures are logged and
// treated as misses; the catalog repository stays the source of truth.
func (h *GetContentHandler) lookupNode(ctx context.Context, id string) (*content.Node, error) {
	if h.cache != nil {
		node, hit, err := h.cache.GetNode(ctx, id)
		if err != nil {
			h.log.Warn("content cache read failed", logger.ContentNodeID(id), logger.Err(err))
		} else if hit {
			return node, nil
		}
	}

	node, err := h.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetNode(ctx, node); err != nil {
			h.log.Warn("content cache write failed", logger.ContentNodeID(id), logger.Err(err))
		}
	}

	return node, nil
}
