// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Learner events
	EventLearnerRegistered EventType = "learner.registered"
	EventCreditsDebited    EventType = "learner.credits_debited"
	EventTierUpgraded      EventType = "learner.tier_upgraded"

	// Interaction events
	EventInteractionAccepted  EventType = "interaction.accepted"
	EventInteractionPersisted EventType = "interaction.persisted"

	// Quiz events
	EventQuizGenerated EventType = "quiz.generated"
	EventQuizScored    EventType = "quiz.scored"

	// Report events
	EventReportRequested EventType = "report.requested"

	// System events
	EventQueueDrained EventType = "system.queue_drained"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// LearnerRegisteredEvent is emitted when a new learner registers.
type LearnerRegisteredEvent struct {
	BaseEvent
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
}

// Payload implements Event interface.
func (e LearnerRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"email":        e.Email,
		"display_name": e.DisplayName,
		"tier":         e.Tier,
	}
}

// NewLearnerRegisteredEvent creates a new LearnerRegisteredEvent.
func NewLearnerRegisteredEvent(learnerID, email, displayName, tier string) LearnerRegisteredEvent {
	return LearnerRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventLearnerRegistered, learnerID),
		Email:       email,
		DisplayName: displayName,
		Tier:        tier,
	}
}

// CreditsDebitedEvent is emitted when a hint credit is spent.
type CreditsDebitedEvent struct {
	BaseEvent
	LearnerID        string `json:"learner_id"`
	ContentNodeID    string `json:"content_node_id"`
	RemainingCredits int    `json:"remaining_credits"`
}

// Payload implements Event interface.
func (e CreditsDebitedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":        e.LearnerID,
		"content_node_id":   e.ContentNodeID,
		"remaining_credits": e.RemainingCredits,
	}
}

// NewCreditsDebitedEvent creates a new CreditsDebitedEvent.
func NewCreditsDebitedEvent(learnerID, contentNodeID string, remaining int) CreditsDebitedEvent {
	return CreditsDebitedEvent{
		BaseEvent:        NewBaseEvent(EventCreditsDebited, learnerID),
		LearnerID:        learnerID,
		ContentNodeID:    contentNodeID,
		RemainingCredits: remaining,
	}
}

// TierUpgradedEvent is emitted when a payment upgrades a learner's tier.
type TierUpgradedEvent struct {
	BaseEvent
	LearnerID      string `json:"learner_id"`
	NewTier        string `json:"new_tier"`
	CreditsGranted int    `json:"credits_granted"`
	PaymentEventID string `json:"payment_event_id"`
}

// Payload implements Event interface.
func (e TierUpgradedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":       e.LearnerID,
		"new_tier":         e.NewTier,
		"credits_granted":  e.CreditsGranted,
		"payment_event_id": e.PaymentEventID,
	}
}

// NewTierUpgradedEvent creates a new TierUpgradedEvent.
func NewTierUpgradedEvent(learnerID, newTier string, creditsGranted int, paymentEventID string) TierUpgradedEvent {
	return TierUpgradedEvent{
		BaseEvent:      NewBaseEvent(EventTierUpgraded, learnerID),
		LearnerID:      learnerID,
		NewTier:        newTier,
		CreditsGranted: creditsGranted,
		PaymentEventID: paymentEventID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Interaction Events
// ═══════════════════════════════════════════════════════════════════════════

// InteractionAcceptedEvent is emitted when an interaction passes validation
// and is durably accepted (enqueued or stored).
type InteractionAcceptedEvent struct {
	BaseEvent
	InteractionID   string `json:"interaction_id"`
	LearnerID       string `json:"learner_id"`
	ContentNodeID   string `json:"content_node_id"`
	InteractionType string `json:"interaction_type"`
}

// Payload implements Event interface.
func (e InteractionAcceptedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"interaction_id":   e.InteractionID,
		"learner_id":       e.LearnerID,
		"content_node_id":  e.ContentNodeID,
		"interaction_type": e.InteractionType,
	}
}

// NewInteractionAcceptedEvent creates a new InteractionAcceptedEvent.
func NewInteractionAcceptedEvent(interactionID, learnerID, contentNodeID, interactionType string) InteractionAcceptedEvent {
	return InteractionAcceptedEvent{
		BaseEvent:       NewBaseEvent(EventInteractionAccepted, learnerID),
		InteractionID:   interactionID,
		LearnerID:       learnerID,
		ContentNodeID:   contentNodeID,
		InteractionType: interactionType,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Quiz Events
// ═══════════════════════════════════════════════════════════════════════════

// QuizScoredEvent is emitted when a quiz attempt receives its final score.
type QuizScoredEvent struct {
	BaseEvent
	AttemptID string  `json:"attempt_id"`
	LearnerID string  `json:"learner_id"`
	Score     float64 `json:"score"`
	Outcome   string  `json:"outcome"`
}

// Payload implements Event interface.
func (e QuizScoredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"attempt_id": e.AttemptID,
		"learner_id": e.LearnerID,
		"score":      e.Score,
		"outcome":    e.Outcome,
	}
}

// NewQuizScoredEvent creates a new QuizScoredEvent.
func NewQuizScoredEvent(attemptID, learnerID string, score float64, outcome string) QuizScoredEvent {
	return QuizScoredEvent{
		BaseEvent: NewBaseEvent(EventQuizScored, attemptID),
		AttemptID: attemptID,
		LearnerID: learnerID,
		Score:     score,
		Outcome:   outcome,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
