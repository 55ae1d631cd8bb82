package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func TestRegisterLearner(t *testing.T) {
	t.Run("creates free tier account with starter credits", func(t *testing.T) {
		repo := newFakeLearnerRepo()
		sessions := &fakeSessions{}
		pub := &capturingPublisher{}
		h := NewRegisterLearnerHandler(repo, sessions, pub, bcrypt.MinCost)

		result, err := h.Handle(context.Background(), RegisterLearnerCommand{
			Email:       "ada@example.com",
			Password:    "correct-horse",
			DisplayName: "Ada",
		})

		require.NoError(t, err)
		assert.Equal(t, learner.TierFree, result.Learner.Tier)
		assert.Equal(t, learner.HintCredits(learner.StarterHintCredits), result.Learner.HintCredits)
		assert.Equal(t, "tok-"+result.Learner.ID, result.Token)

		// Plaintext never stored.
		assert.NotEqual(t, "correct-horse", result.Learner.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.Learner.PasswordHash), []byte("correct-horse")))

		events := pub.published()
		require.Len(t, events, 1)
		assert.Equal(t, shared.EventLearnerRegistered, events[0].EventType())
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		repo := newFakeLearnerRepo()
		h := NewRegisterLearnerHandler(repo, &fakeSessions{}, &capturingPublisher{}, bcrypt.MinCost)

		cmd := RegisterLearnerCommand{Email: "ada@example.com", Password: "correct-horse"}
		_, err := h.Handle(context.Background(), cmd)
		require.NoError(t, err)

		_, err = h.Handle(context.Background(), cmd)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("rejects short password", func(t *testing.T) {
		h := NewRegisterLearnerHandler(newFakeLearnerRepo(), &fakeSessions{}, &capturingPublisher{}, bcrypt.MinCost)

		_, err := h.Handle(context.Background(), RegisterLearnerCommand{
			Email:    "ada@example.com",
			Password: "short",
		})

		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		h := NewRegisterLearnerHandler(newFakeLearnerRepo(), &fakeSessions{}, &capturingPublisher{}, bcrypt.MinCost)

		_, err := h.Handle(context.Background(), RegisterLearnerCommand{
			Email:    "not-an-email",
			Password: "correct-horse",
		})

		assert.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestLogin(t *testing.T) {
	register := func(t *testing.T, repo *fakeLearnerRepo) *learner.Learner {
		t.Helper()
		h := NewRegisterLearnerHandler(repo, &fakeSessions{}, &capturingPublisher{}, bcrypt.MinCost)
		result, err := h.Handle(context.Background(), RegisterLearnerCommand{
			Email:    "ada@example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		return result.Learner
	}

	t.Run("opens session on valid credentials", func(t *testing.T) {
		repo := newFakeLearnerRepo()
		registered := register(t, repo)
		sessions := &fakeSessions{}
		h := NewLoginHandler(repo, sessions)

		result, err := h.Handle(context.Background(), LoginCommand{
			Email:    "ada@example.com",
			Password: "correct-horse",
		})

		require.NoError(t, err)
		assert.Equal(t, registered.ID, result.Learner.ID)
		assert.Equal(t, "tok-"+registered.ID, result.Token)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		repo := newFakeLearnerRepo()
		register(t, repo)
		h := NewLoginHandler(repo, &fakeSessions{})

		_, errUnknown := h.Handle(context.Background(), LoginCommand{
			Email:    "nobody@example.com",
			Password: "correct-horse",
		})
		_, errWrongPass := h.Handle(context.Background(), LoginCommand{
			Email:    "ada@example.com",
			Password: "wrong-password",
		})

		assert.ErrorIs(t, errUnknown, shared.ErrUnauthenticated)
		assert.ErrorIs(t, errWrongPass, shared.ErrUnauthenticated)
		assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
	})
}
