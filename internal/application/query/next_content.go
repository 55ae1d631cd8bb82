package query

import (
	"context"

	"github.com/learnloop/learnloop-core/config"
	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// NEXT CONTENT QUERY
// Asks the personalization engine what the learner should study next
// and validates the pick against the catalog before delivery.
// ══════════════════════════════════════════════════════════════════════════════

// NextContentQuery identifies the learner asking for a recommendation.
type NextContentQuery struct {
	LearnerID string
	Tier      string
}

// NextContentResult is the validated recommendation.
type NextContentResult struct {
	Node   *content.Node
	Reason string
}

// NextContentHandler handles the NextContentQuery.
type NextContentHandler struct {
	recommender content.Recommender
	contentRepo content.Repository
	flags       *config.FeatureFlags
}

// NewNextContentHandler creates a new NextContentHandler.
func NewNextContentHandler(
	recommender content.Recommender,
	contentRepo content.Repository,
	flags *config.FeatureFlags,
) *NextContentHandler {
	return &NextContentHandler{
		recommender: recommender,
		contentRepo: contentRepo,
		flags:       flags,
	}
}

// Handle executes the query.
//
// An engine failure degrades to the same "no recommendation available"
// answer a learner with nothing to study would get: the recommendation
// is advisory, so a dead engine must never surface as an upstream
// fault on this path.
//
// A recommendation naming a node the catalog does not have is treated
// as an invalid engine response, not as a missing-content error: the
// learner asked for "next", not for a specific node.
func (h *NextContentHandler) Handle(ctx context.Context, q NextContentQuery) (*NextContentResult, error) {
	if q.LearnerID == "" {
		return nil, shared.NewDomainError("content", "Next", shared.ErrValidation, "learner ID is required")
	}

	if h.flags != nil && !h.flags.IsEnabled(config.FeatureNextContent, &config.FeatureContext{
		LearnerID: q.LearnerID,
		Tier:      q.Tier,
	}) {
		return nil, shared.NewDomainError("content", "Next", shared.ErrNotFound, "recommendations are not enabled")
	}

	rec, err := h.recommender.NextFor(ctx, q.LearnerID)
	if err != nil {
		// Deliberately not wrapped: the external-service kind must not
		// leak into the status mapping.
		return nil, shared.NewDomainError("content", "Next", shared.ErrNotFound, "no recommendation available")
	}

	node, err := h.contentRepo.GetByID(ctx, rec.ContentNodeID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.WrapError("content", "Next", shared.ErrInvalidFormat,
				"engine recommended an unknown content node", err)
		}
		return nil, err
	}

	return &NextContentResult{Node: node, Reason: rec.Reason}, nil
}
