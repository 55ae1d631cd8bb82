package learner

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines CRUD operations for learners.
type Repository interface {
	// Create creates a new learner.
	// Returns shared.ErrLearnerAlreadyExists if the email is taken.
	Create(ctx context.Context, l *Learner) error

	// GetByID returns a learner by internal ID.
	// Returns shared.ErrLearnerNotFound if the learner does not exist.
	GetByID(ctx context.Context, id string) (*Learner, error)

	// GetByEmail returns a learner by email.
	// Returns shared.ErrLearnerNotFound if the learner does not exist.
	GetByEmail(ctx context.Context, email string) (*Learner, error)

	// GetProfile returns the derived learning profile for a learner,
	// or shared.ErrNotFound if none has been generated yet.
	GetProfile(ctx context.Context, learnerID string) (*Profile, error)

	// UpsertProfile writes the derived profile produced alongside a report.
	UpsertProfile(ctx context.Context, p *Profile) error
}

// DebitResult is returned by a successful hint credit debit.
type DebitResult struct {
	// Hint is the hint payload revealed by the debit.
	Hint string

	// RemainingCredits is the balance after the decrement.
	RemainingCredits HintCredits
}

// CreditLedger is the at-most-once hint credit ledger.
//
// DebitHintCredit runs as a single atomic unit: check balance, decrement by
// one, look up the hint for the given quiz node. Any failure rolls back the
// decrement. Two concurrent debits for the same learner serialize on that
// learner's balance; the balance never goes negative.
type CreditLedger interface {
	// DebitHintCredit spends one credit and reveals the hint for contentNodeID.
	// Returns shared.ErrInsufficientCredits when the balance is zero and
	// shared.ErrHintUnavailable when the node is not a quiz or has no hint.
	DebitHintCredit(ctx context.Context, learnerID, contentNodeID string) (*DebitResult, error)
}

// PaymentCredit is the idempotent payment-confirmation crediting operation.
type PaymentCredit interface {
	// ApplyPaymentCredit upgrades the learner to premium and grants credits,
	// keyed by the payment provider's event ID. Replays of the same event ID
	// are absorbed without a second credit; the bool reports whether this
	// call applied the credit (false on replay).
	ApplyPaymentCredit(ctx context.Context, paymentEventID, learnerID string) (bool, error)
}
