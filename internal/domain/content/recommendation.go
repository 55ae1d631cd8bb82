package content

import "context"

// Recommendation is the engine's pick for what a learner should study
// next. The node ID is validated against the catalog before delivery;
// the engine's word alone is not trusted.
type Recommendation struct {
	// ContentNodeID is the recommended node.
	ContentNodeID string

	// Reason is the engine's short human-readable rationale.
	Reason string

	// Confidence is the engine's self-reported confidence in [0, 1].
	Confidence float64
}

// Recommender produces next-content picks.
// Implemented by the personalization engine client.
type Recommender interface {
	NextFor(ctx context.Context, learnerID string) (*Recommendation, error)
}
