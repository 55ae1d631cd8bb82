// Package interaction contains the interaction-event domain model:
// fine-grained records of how a learner engages with content.
package interaction

import (
	"context"
	"encoding/json"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Type is the closed set of interaction event kinds.
// Anything outside this set is rejected at acceptance time.
type Type string

const (
	TypeView     Type = "VIEW"
	TypeComplete Type = "COMPLETE"
	TypePause    Type = "PAUSE"
	TypeSeek     Type = "SEEK"
	TypeAnswer   Type = "ANSWER"
	TypeSkip     Type = "SKIP"
)

// IsValid checks that the type is one of the known values.
func (t Type) IsValid() bool {
	switch t {
	case TypeView, TypeComplete, TypePause, TypeSeek, TypeAnswer, TypeSkip:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t Type) String() string {
	return string(t)
}

// NewType creates a Type with validation.
func NewType(value string) (Type, error) {
	t := Type(value)
	if !t.IsValid() {
		return "", shared.ErrInvalidInteractionType
	}
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: INTERACTION
// ══════════════════════════════════════════════════════════════════════════════

// Interaction is a single interaction event.
//
// ID and AcceptedAt are assigned once, at acceptance time, before the
// event enters any queue. They never change afterwards: the ID is the
// dedupe key for redeliveries, and AcceptedAt preserves the original
// order even when persistence happens much later.
type Interaction struct {
	// ID is the unique event identifier (UUID), assigned at acceptance.
	ID string `json:"id"`

	// LearnerID is the authenticated learner the event belongs to.
	// Always taken from the session, never from the request body.
	LearnerID string `json:"learner_id"`

	// ContentNodeID is the content the interaction refers to.
	ContentNodeID string `json:"content_node_id"`

	// Type is the interaction kind.
	Type Type `json:"type"`

	// Metadata is an optional free-form payload (player position,
	// answer choice, etc.). Stored as-is.
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// AcceptedAt is the acceptance timestamp, assigned once.
	AcceptedAt time.Time `json:"accepted_at"`
}

// New validates the inputs and builds an accepted interaction.
// The ID must be pre-generated by the caller; the acceptance timestamp
// is taken here so it precedes any queueing delay.
func New(id, learnerID, contentNodeID string, interactionType Type, metadata json.RawMessage) (*Interaction, error) {
	if id == "" {
		return nil, shared.NewDomainError("interaction", "New", shared.ErrInvalidID, "interaction ID is required")
	}
	if learnerID == "" {
		return nil, shared.NewDomainError("interaction", "New", shared.ErrInvalidID, "learner ID is required")
	}
	if contentNodeID == "" {
		return nil, shared.NewDomainError("interaction", "New", shared.ErrInvalidID, "content node ID is required")
	}
	if !interactionType.IsValid() {
		return nil, shared.ErrInvalidInteractionType
	}

	return &Interaction{
		ID:            id,
		LearnerID:     learnerID,
		ContentNodeID: contentNodeID,
		Type:          interactionType,
		Metadata:      metadata,
		AcceptedAt:    time.Now().UTC(),
	}, nil
}

// Marshal serializes the interaction for queue transport.
func (i *Interaction) Marshal() ([]byte, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, shared.WrapError("interaction", "Marshal", shared.ErrInternal, "failed to serialize interaction", err)
	}
	return data, nil
}

// Unmarshal deserializes a queued interaction.
func Unmarshal(data []byte) (*Interaction, error) {
	var i Interaction
	if err := json.Unmarshal(data, &i); err != nil {
		return nil, shared.WrapError("interaction", "Unmarshal", shared.ErrInvalidFormat, "failed to deserialize interaction", err)
	}
	if i.ID == "" || !i.Type.IsValid() {
		return nil, shared.NewDomainError("interaction", "Unmarshal", shared.ErrInvalidEntity, "queued interaction is missing required fields")
	}
	return &i, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Sink accepts validated interactions for eventual persistence.
//
// A deployment wires exactly one implementation: the queued sink
// enqueues and returns immediately, the sync sink writes through to
// storage in-call. Callers cannot tell which one they hold.
type Sink interface {
	// Accept hands over an interaction. On return the event is durably
	// accepted (enqueued or stored) or an error is reported.
	Accept(ctx context.Context, i *Interaction) error
}

// Queue is the transport between the accepting side and the consumer.
// Delivery is at-least-once; consumers must deduplicate by ID.
type Queue interface {
	// Enqueue pushes a serialized interaction onto the queue.
	Enqueue(ctx context.Context, data []byte) error

	// Dequeue blocks up to timeout for the next interaction and moves
	// it to an in-flight holding area. Returns (nil, nil) on timeout.
	Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error)

	// Ack removes a successfully processed interaction from the
	// in-flight area.
	Ack(ctx context.Context, data []byte) error

	// RecoverInFlight moves abandoned in-flight interactions back to
	// the queue (crash recovery, called at consumer startup).
	RecoverInFlight(ctx context.Context) (int, error)

	// Len returns the current queue depth.
	Len(ctx context.Context) (int64, error)
}

// ActivityEntry is a read model row: one recent interaction joined
// with the title of the content node it refers to. Title may be empty
// when the node has since been removed.
type ActivityEntry struct {
	InteractionID string    `json:"interaction_id"`
	ContentNodeID string    `json:"content_node_id"`
	NodeTitle     string    `json:"node_title,omitempty"`
	Type          Type      `json:"type"`
	AcceptedAt    time.Time `json:"accepted_at"`
}

// Repository persists interactions.
type Repository interface {
	// Store inserts an interaction. The first write of an ID wins;
	// a redelivery of the same ID is a no-op reported as
	// shared.ErrAlreadyProcessed, so at-least-once delivery yields
	// exactly-once storage. An interaction referencing entities that
	// do not exist is rejected with shared.ErrInvalidEntity.
	Store(ctx context.Context, i *Interaction) error

	// CountByLearner returns how many interactions a learner has recorded.
	CountByLearner(ctx context.Context, learnerID string) (int64, error)
}
