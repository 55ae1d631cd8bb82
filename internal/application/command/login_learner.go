package command

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOGIN COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// LoginCommand contains login credentials.
type LoginCommand struct {
	Email    string
	Password string
}

// Validate validates the command.
func (c LoginCommand) Validate() error {
	if c.Email == "" || c.Password == "" {
		return shared.NewDomainError("learner", "Login", shared.ErrValidation, "email and password are required")
	}
	return nil
}

// LoginResult contains the opened session.
type LoginResult struct {
	Learner *learner.Learner
	Token   string
}

// LoginHandler handles the LoginCommand.
type LoginHandler struct {
	learnerRepo learner.Repository
	sessions    SessionIssuer
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(learnerRepo learner.Repository, sessions SessionIssuer) *LoginHandler {
	return &LoginHandler{
		learnerRepo: learnerRepo,
		sessions:    sessions,
	}
}

// Handle executes the login. Unknown email and wrong password produce
// the same error, so the endpoint cannot be used to probe accounts.
func (h *LoginHandler) Handle(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	email, err := shared.NewEmail(cmd.Email)
	if err != nil {
		return nil, shared.ErrUnauthenticated
	}

	l, err := h.learnerRepo.GetByEmail(ctx, email.String())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(l.PasswordHash), []byte(cmd.Password)); err != nil {
		return nil, shared.ErrUnauthenticated
	}

	token, err := h.sessions.Create(ctx, l.ID, l.Tier.String())
	if err != nil {
		return nil, fmt.Errorf("login: failed to open session: %w", err)
	}

	return &LoginResult{Learner: l, Token: token}, nil
}
