// Package learner contains the learner (platform user) domain model.
// This is business-logic core - no external dependencies here.
package learner

import (
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Tier represents a learner's subscription tier.
type Tier string

const (
	// TierFree is the default tier with redacted reports and starter credits.
	TierFree Tier = "FREE"
	// TierPremium is the paid tier with full report access.
	TierPremium Tier = "PREMIUM"
)

// IsValid checks that the tier is one of the known values.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPremium:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t Tier) String() string {
	return string(t)
}

// SeesFullReports returns true if reports must not be redacted for this tier.
func (t Tier) SeesFullReports() bool {
	return t == TierPremium
}

// NewTier creates a Tier with validation.
func NewTier(value string) (Tier, error) {
	t := Tier(value)
	if !t.IsValid() {
		return "", shared.ErrInvalidTier
	}
	return t, nil
}

// HintCredits represents the metered hint credit counter.
// Invariant: never negative; enforced both here and by the storage layer.
type HintCredits int

// IsValid checks that the counter is non-negative.
func (c HintCredits) IsValid() bool {
	return c >= 0
}

// Int returns the underlying int value.
func (c HintCredits) Int() int {
	return int(c)
}

// CanDebit returns true if a single credit can be spent.
func (c HintCredits) CanDebit() bool {
	return c > 0
}

// Debit spends one credit. The caller must check CanDebit first; the
// floor at zero is a last line of defense, not the business rule.
func (c HintCredits) Debit() HintCredits {
	if c <= 0 {
		return 0
	}
	return c - 1
}

// Add grants credits (payment confirmation path).
func (c HintCredits) Add(amount int) HintCredits {
	result := HintCredits(int(c) + amount)
	if result < 0 {
		return 0
	}
	return result
}

// NewHintCredits creates a HintCredits value with validation.
func NewHintCredits(amount int) (HintCredits, error) {
	if amount < 0 {
		return 0, shared.NewDomainError("learner", "NewHintCredits", shared.ErrNegativeValue, "hint credits cannot be negative")
	}
	return HintCredits(amount), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LEARNER
// ══════════════════════════════════════════════════════════════════════════════

// StarterHintCredits is granted to every new learner at registration.
const StarterHintCredits = 5

// UpgradeHintCredits is granted when a payment upgrades a learner to premium.
const UpgradeHintCredits = 100

// Learner is the central user entity of the platform.
type Learner struct {
	// ID is the internal unique identifier (UUID in string form).
	ID string

	// Email is the unique login identity.
	Email shared.Email

	// PasswordHash is the bcrypt hash of the learner's password.
	// Managed by the auth collaborator; never exposed outward.
	PasswordHash string

	// DisplayName is the learner's visible name.
	DisplayName string

	// Tier is the current subscription tier.
	Tier Tier

	// HintCredits is the metered hint counter. Mutated only by the
	// credit ledger (decrement) and payment confirmation (increment).
	HintCredits HintCredits

	// CreatedAt is when the learner registered.
	CreatedAt time.Time

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// NewLearner creates a new learner on the free tier with starter credits.
func NewLearner(id string, email shared.Email, passwordHash, displayName string) (*Learner, error) {
	if id == "" {
		return nil, shared.NewDomainError("learner", "New", shared.ErrInvalidID, "learner ID is required")
	}
	if !email.IsValid() {
		return nil, shared.NewDomainError("learner", "New", shared.ErrInvalidFormat, "invalid email")
	}
	if passwordHash == "" {
		return nil, shared.NewDomainError("learner", "New", shared.ErrEmptyValue, "password hash is required")
	}

	now := time.Now().UTC()
	return &Learner{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		Tier:         TierFree,
		HintCredits:  StarterHintCredits,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Upgrade moves the learner to premium and grants upgrade credits.
func (l *Learner) Upgrade() {
	l.Tier = TierPremium
	l.HintCredits = l.HintCredits.Add(UpgradeHintCredits)
	l.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile holds derived learning analytics for a learner.
// It is produced by the external report generator and read-only to the core.
type Profile struct {
	LearnerID       string
	EngagementScore float64
	CompetenceMap   map[string]float64
	UpdatedAt       time.Time
}
