package engine

import (
	"context"

	"github.com/learnloop/learnloop-core/internal/domain/content"
)

// Recommender adapts the engine client to the domain recommender port.
type Recommender struct {
	client *Client
}

// Compile-time interface check.
var _ content.Recommender = (*Recommender)(nil)

// NewRecommender creates a Recommender over an engine client.
func NewRecommender(client *Client) *Recommender {
	return &Recommender{client: client}
}

// NextFor asks the engine for the learner's next content node.
func (r *Recommender) NextFor(ctx context.Context, learnerID string) (*content.Recommendation, error) {
	resp, err := r.client.Recommend(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return &content.Recommendation{
		ContentNodeID: resp.ContentNodeID,
		Reason:        resp.Reason,
		Confidence:    resp.Confidence,
	}, nil
}
