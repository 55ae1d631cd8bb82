package command

import (
	"context"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USE HINT COMMAND
// Spends one hint credit and reveals the hint for a quiz node. The
// debit and the hint lookup are one atomic unit in the ledger: no
// partial outcome can leak a hint without payment or charge without
// a hint.
// ══════════════════════════════════════════════════════════════════════════════

// UseHintCommand identifies the learner and the quiz node.
type UseHintCommand struct {
	// LearnerID is the authenticated learner spending the credit.
	LearnerID string

	// ContentNodeID is the quiz node whose hint is requested.
	ContentNodeID string
}

// Validate validates the command.
func (c UseHintCommand) Validate() error {
	if c.LearnerID == "" {
		return shared.NewDomainError("learner", "UseHint", shared.ErrValidation, "learner ID is required")
	}
	if c.ContentNodeID == "" {
		return shared.NewDomainError("learner", "UseHint", shared.ErrValidation, "content node ID is required")
	}
	return nil
}

// UseHintResult contains the revealed hint and the new balance.
type UseHintResult struct {
	Hint             string
	RemainingCredits int
}

// UseHintHandler handles the UseHintCommand.
type UseHintHandler struct {
	ledger    learner.CreditLedger
	publisher shared.EventPublisher
}

// NewUseHintHandler creates a new UseHintHandler.
func NewUseHintHandler(ledger learner.CreditLedger, publisher shared.EventPublisher) *UseHintHandler {
	return &UseHintHandler{
		ledger:    ledger,
		publisher: publisher,
	}
}

// Handle executes the debit.
func (h *UseHintHandler) Handle(ctx context.Context, cmd UseHintCommand) (*UseHintResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	result, err := h.ledger.DebitHintCredit(ctx, cmd.LearnerID, cmd.ContentNodeID)
	if err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewCreditsDebitedEvent(
		cmd.LearnerID, cmd.ContentNodeID, result.RemainingCredits.Int(),
	))

	return &UseHintResult{
		Hint:             result.Hint,
		RemainingCredits: result.RemainingCredits.Int(),
	}, nil
}
