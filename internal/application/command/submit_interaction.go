package command

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT INTERACTION COMMAND
// Validates an interaction event and hands it to the configured sink.
// The handler never knows whether the sink queues or writes through;
// on success the event is durably accepted either way.
// ══════════════════════════════════════════════════════════════════════════════

// MaxMetadataBytes caps the free-form metadata payload.
const MaxMetadataBytes = 4096

// SubmitInteractionCommand contains one interaction event.
type SubmitInteractionCommand struct {
	// LearnerID is the authenticated learner. Taken from the session,
	// never from the request body.
	LearnerID string

	// ContentNodeID is the content the interaction refers to.
	ContentNodeID string

	// Type is the interaction kind (VIEW, COMPLETE, PAUSE, ...).
	Type string

	// Metadata is an optional free-form payload.
	Metadata json.RawMessage
}

// Validate validates the command.
func (c SubmitInteractionCommand) Validate() error {
	if c.LearnerID == "" {
		return shared.NewDomainError("interaction", "Submit", shared.ErrValidation, "learner ID is required")
	}
	if c.ContentNodeID == "" {
		return shared.NewDomainError("interaction", "Submit", shared.ErrValidation, "content node ID is required")
	}
	if _, err := uuid.Parse(c.ContentNodeID); err != nil {
		return shared.NewDomainError("interaction", "Submit", shared.ErrValidation, "content node ID must be a UUID")
	}
	if _, err := interaction.NewType(c.Type); err != nil {
		return err
	}
	if len(c.Metadata) > MaxMetadataBytes {
		return shared.NewDomainError("interaction", "Submit", shared.ErrValidation, "metadata payload too large")
	}
	return nil
}

// SubmitInteractionResult reports the accepted event.
type SubmitInteractionResult struct {
	// InteractionID is the server-assigned event ID.
	InteractionID string

	// AcceptedAt is the acceptance timestamp.
	AcceptedAt time.Time
}

// SubmitInteractionHandler handles the SubmitInteractionCommand.
type SubmitInteractionHandler struct {
	sink      interaction.Sink
	publisher shared.EventPublisher
}

// NewSubmitInteractionHandler creates a new SubmitInteractionHandler.
func NewSubmitInteractionHandler(sink interaction.Sink, publisher shared.EventPublisher) *SubmitInteractionHandler {
	return &SubmitInteractionHandler{
		sink:      sink,
		publisher: publisher,
	}
}

// Handle validates and accepts the interaction.
func (h *SubmitInteractionHandler) Handle(ctx context.Context, cmd SubmitInteractionCommand) (*SubmitInteractionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	evt, err := interaction.New(
		uuid.NewString(),
		cmd.LearnerID,
		cmd.ContentNodeID,
		interaction.Type(cmd.Type),
		cmd.Metadata,
	)
	if err != nil {
		return nil, err
	}

	if err := h.sink.Accept(ctx, evt); err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewInteractionAcceptedEvent(
		evt.ID, evt.LearnerID, evt.ContentNodeID, evt.Type.String(),
	))

	return &SubmitInteractionResult{
		InteractionID: evt.ID,
		AcceptedAt:    evt.AcceptedAt,
	}, nil
}
