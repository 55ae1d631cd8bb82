package command

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func TestSubmitInteraction(t *testing.T) {
	nodeID := uuid.NewString()

	t.Run("accepted event gets a server-assigned ID", func(t *testing.T) {
		sink := &fakeSink{}
		pub := &capturingPublisher{}
		h := NewSubmitInteractionHandler(sink, pub)

		result, err := h.Handle(context.Background(), SubmitInteractionCommand{
			LearnerID:     "learner-1",
			ContentNodeID: nodeID,
			Type:          interaction.TypeView.String(),
			Metadata:      json.RawMessage(`{"position_seconds":42}`),
		})

		require.NoError(t, err)
		assert.NotEmpty(t, result.InteractionID)
		assert.False(t, result.AcceptedAt.IsZero())

		require.Len(t, sink.accepted, 1)
		assert.Equal(t, result.InteractionID, sink.accepted[0].ID)
		assert.Equal(t, "learner-1", sink.accepted[0].LearnerID)

		events := pub.published()
		require.Len(t, events, 1)
		assert.Equal(t, shared.EventInteractionAccepted, events[0].EventType())
	})

	t.Run("content node ID must be a UUID", func(t *testing.T) {
		sink := &fakeSink{}
		h := NewSubmitInteractionHandler(sink, &capturingPublisher{})

		_, err := h.Handle(context.Background(), SubmitInteractionCommand{
			LearnerID:     "learner-1",
			ContentNodeID: "definitely-not-a-uuid",
			Type:          interaction.TypeView.String(),
		})

		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Empty(t, sink.accepted)
	})

	t.Run("unknown interaction type", func(t *testing.T) {
		h := NewSubmitInteractionHandler(&fakeSink{}, &capturingPublisher{})

		_, err := h.Handle(context.Background(), SubmitInteractionCommand{
			LearnerID:     "learner-1",
			ContentNodeID: nodeID,
			Type:          "TELEPORT",
		})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("oversized metadata", func(t *testing.T) {
		sink := &fakeSink{}
		h := NewSubmitInteractionHandler(sink, &capturingPublisher{})

		huge := json.RawMessage(`{"blob":"` + strings.Repeat("x", MaxMetadataBytes) + `"}`)
		_, err := h.Handle(context.Background(), SubmitInteractionCommand{
			LearnerID:     "learner-1",
			ContentNodeID: nodeID,
			Type:          interaction.TypeView.String(),
			Metadata:      huge,
		})

		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Empty(t, sink.accepted)
	})

	t.Run("sink failure propagates without an accepted event", func(t *testing.T) {
		sink := &fakeSink{err: shared.ErrQueueUnavailable}
		pub := &capturingPublisher{}
		h := NewSubmitInteractionHandler(sink, pub)

		_, err := h.Handle(context.Background(), SubmitInteractionCommand{
			LearnerID:     "learner-1",
			ContentNodeID: nodeID,
			Type:          interaction.TypeComplete.String(),
		})

		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Empty(t, pub.published())
	})
}
