package command

import (
	"context"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY PAYMENT COMMAND
// Applies a verified payment confirmation: premium upgrade plus credit
// grant, keyed by the provider's event ID. Signature verification
// happens at the transport layer against the raw body; by the time the
// command runs, the event is authentic.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyPaymentCommand contains a verified payment event.
type ApplyPaymentCommand struct {
	// PaymentEventID is the provider's unique event ID (idempotency key).
	PaymentEventID string

	// LearnerID is the paying learner.
	LearnerID string
}

// Validate validates the command.
func (c ApplyPaymentCommand) Validate() error {
	if c.PaymentEventID == "" {
		return shared.NewDomainError("learner", "ApplyPayment", shared.ErrValidation, "payment event ID is required")
	}
	if c.LearnerID == "" {
		return shared.NewDomainError("learner", "ApplyPayment", shared.ErrValidation, "learner ID is required")
	}
	return nil
}

// ApplyPaymentResult reports whether this call applied the credit.
type ApplyPaymentResult struct {
	// Applied is false when the event ID was already processed.
	Applied bool
}

// ApplyPaymentHandler handles the ApplyPaymentCommand.
type ApplyPaymentHandler struct {
	credits   learner.PaymentCredit
	publisher shared.EventPublisher
}

// NewApplyPaymentHandler creates a new ApplyPaymentHandler.
func NewApplyPaymentHandler(credits learner.PaymentCredit, publisher shared.EventPublisher) *ApplyPaymentHandler {
	return &ApplyPaymentHandler{
		credits:   credits,
		publisher: publisher,
	}
}

// Handle applies the payment. Replays succeed without a second credit,
// so the provider always receives a 2xx and stops retrying.
func (h *ApplyPaymentHandler) Handle(ctx context.Context, cmd ApplyPaymentCommand) (*ApplyPaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	applied, err := h.credits.ApplyPaymentCredit(ctx, cmd.PaymentEventID, cmd.LearnerID)
	if err != nil {
		return nil, err
	}

	if applied {
		_ = h.publisher.Publish(shared.NewTierUpgradedEvent(
			cmd.LearnerID, learner.TierPremium.String(), learner.UpgradeHintCredits, cmd.PaymentEventID,
		))
	}

	return &ApplyPaymentResult{Applied: applied}, nil
}
