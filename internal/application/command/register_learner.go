// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER LEARNER COMMAND
// Creates an account on the free tier with starter hint credits and
// opens the first session.
// ══════════════════════════════════════════════════════════════════════════════

// SessionIssuer opens authenticated sessions. Implemented by the Redis
// session store.
type SessionIssuer interface {
	Create(ctx context.Context, learnerID, tier string) (string, error)
}

// RegisterLearnerCommand contains the data to register a learner.
type RegisterLearnerCommand struct {
	// Email is the login identity.
	Email string

	// Password is the plaintext password; hashed before storage.
	Password string

	// DisplayName is the visible name.
	DisplayName string
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// Validate validates the command.
func (c RegisterLearnerCommand) Validate() error {
	if _, err := shared.NewEmail(c.Email); err != nil {
		return err
	}
	if len(c.Password) < MinPasswordLength {
		return shared.NewDomainError("learner", "Register", shared.ErrValidation,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// RegisterLearnerResult contains the result of registration.
type RegisterLearnerResult struct {
	// Learner is the created account.
	Learner *learner.Learner

	// Token is the opaque session token for the new account.
	Token string
}

// ─────────────────────────────────────────────────────────────────────────────
// Handler
// ─────────────────────────────────────────────────────────────────────────────

// RegisterLearnerHandler handles the RegisterLearnerCommand.
type RegisterLearnerHandler struct {
	learnerRepo learner.Repository
	sessions    SessionIssuer
	publisher   shared.EventPublisher
	bcryptCost  int
}

// NewRegisterLearnerHandler creates a new RegisterLearnerHandler.
func NewRegisterLearnerHandler(
	learnerRepo learner.Repository,
	sessions SessionIssuer,
	publisher shared.EventPublisher,
	bcryptCost int,
) *RegisterLearnerHandler {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &RegisterLearnerHandler{
		learnerRepo: learnerRepo,
		sessions:    sessions,
		publisher:   publisher,
		bcryptCost:  bcryptCost,
	}
}

// Handle executes the registration.
func (h *RegisterLearnerHandler) Handle(ctx context.Context, cmd RegisterLearnerCommand) (*RegisterLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	email, _ := shared.NewEmail(cmd.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register_learner: failed to hash password: %w", err)
	}

	l, err := learner.NewLearner(uuid.NewString(), email, string(hash), cmd.DisplayName)
	if err != nil {
		return nil, err
	}

	if err := h.learnerRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	token, err := h.sessions.Create(ctx, l.ID, l.Tier.String())
	if err != nil {
		return nil, fmt.Errorf("register_learner: failed to open session: %w", err)
	}

	_ = h.publisher.Publish(shared.NewLearnerRegisteredEvent(
		l.ID, l.Email.String(), l.DisplayName, l.Tier.String(),
	))

	return &RegisterLearnerResult{Learner: l, Token: token}, nil
}
