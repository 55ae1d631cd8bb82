package command

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func seedAttempt(t *testing.T, repo *fakeAttemptRepo, learnerID string) *quiz.Attempt {
	t.Helper()
	attempt, err := quiz.NewAttempt("attempt-1", learnerID, "node-1", json.RawMessage(`[{"q":"?"}]`))
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), attempt))
	return attempt
}

func TestSubmitQuiz(t *testing.T) {
	answers := json.RawMessage(`[{"a":"42"}]`)

	t.Run("score at threshold passes", func(t *testing.T) {
		repo := newFakeAttemptRepo()
		seedAttempt(t, repo, "learner-1")
		oracle := &fakeOracle{score: quiz.MasteryThreshold}
		pub := &capturingPublisher{}
		h := NewSubmitQuizHandler(repo, oracle, pub)

		result, err := h.Handle(context.Background(), SubmitQuizCommand{
			AttemptID: "attempt-1",
			LearnerID: "learner-1",
			Answers:   answers,
		})

		require.NoError(t, err)
		assert.Equal(t, quiz.StateScored, result.Attempt.State)
		assert.Equal(t, quiz.OutcomePassed, result.Attempt.Outcome)
		assert.True(t, result.Attempt.Passed())

		stored, err := repo.GetByID(context.Background(), "attempt-1")
		require.NoError(t, err)
		assert.Equal(t, quiz.StateScored, stored.State)

		events := pub.published()
		require.Len(t, events, 1)
		assert.Equal(t, shared.EventQuizScored, events[0].EventType())
	})

	t.Run("score below threshold fails", func(t *testing.T) {
		repo := newFakeAttemptRepo()
		seedAttempt(t, repo, "learner-1")
		h := NewSubmitQuizHandler(repo, &fakeOracle{score: 0.79}, &capturingPublisher{})

		result, err := h.Handle(context.Background(), SubmitQuizCommand{
			AttemptID: "attempt-1",
			LearnerID: "learner-1",
			Answers:   answers,
		})

		require.NoError(t, err)
		assert.Equal(t, quiz.OutcomeFailed, result.Attempt.Outcome)
		assert.False(t, result.Attempt.Passed())
	})

	t.Run("resubmission of a scored attempt is rejected", func(t *testing.T) {
		repo := newFakeAttemptRepo()
		seedAttempt(t, repo, "learner-1")
		oracle := &fakeOracle{score: 0.9}
		h := NewSubmitQuizHandler(repo, oracle, &capturingPublisher{})

		cmd := SubmitQuizCommand{AttemptID: "attempt-1", LearnerID: "learner-1", Answers: answers}
		_, err := h.Handle(context.Background(), cmd)
		require.NoError(t, err)

		_, err = h.Handle(context.Background(), cmd)
		assert.ErrorIs(t, err, shared.ErrAlreadyScored)
		// The oracle is never consulted for the rejected resubmission.
		assert.Equal(t, 1, oracle.evaluateSeen)
	})

	t.Run("another learner's attempt is forbidden", func(t *testing.T) {
		repo := newFakeAttemptRepo()
		seedAttempt(t, repo, "learner-1")
		h := NewSubmitQuizHandler(repo, &fakeOracle{score: 0.9}, &capturingPublisher{})

		_, err := h.Handle(context.Background(), SubmitQuizCommand{
			AttemptID: "attempt-1",
			LearnerID: "intruder",
			Answers:   answers,
		})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("oracle failure leaves a durably submitted attempt", func(t *testing.T) {
		repo := newFakeAttemptRepo()
		seedAttempt(t, repo, "learner-1")
		oracle := &fakeOracle{evaluateErr: shared.ErrEngineUnavailable}
		pub := &capturingPublisher{}
		h := NewSubmitQuizHandler(repo, oracle, pub)

		cmd := SubmitQuizCommand{AttemptID: "attempt-1", LearnerID: "learner-1", Answers: answers}
		_, err := h.Handle(context.Background(), cmd)
		require.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Empty(t, pub.published())

		// The submission survives the oracle outage in storage.
		stored, err := repo.GetByID(context.Background(), "attempt-1")
		require.NoError(t, err)
		assert.Equal(t, quiz.StateSubmitted, stored.State)
		assert.Equal(t, answers, stored.Answers)
		require.NotNil(t, stored.SubmittedAt)

		// A retry scores the submitted attempt.
		oracle.evaluateErr = nil
		oracle.score = 0.85
		result, err := h.Handle(context.Background(), cmd)
		require.NoError(t, err)
		assert.Equal(t, quiz.OutcomePassed, result.Attempt.Outcome)
	})

	t.Run("empty answers are rejected before any lookup", func(t *testing.T) {
		h := NewSubmitQuizHandler(newFakeAttemptRepo(), &fakeOracle{}, &capturingPublisher{})

		_, err := h.Handle(context.Background(), SubmitQuizCommand{
			AttemptID: "attempt-1",
			LearnerID: "learner-1",
			Answers:   json.RawMessage("null"),
		})

		assert.ErrorIs(t, err, shared.ErrNoAnswersProvided)
	})

	t.Run("unknown attempt", func(t *testing.T) {
		h := NewSubmitQuizHandler(newFakeAttemptRepo(), &fakeOracle{score: 0.9}, &capturingPublisher{})

		_, err := h.Handle(context.Background(), SubmitQuizCommand{
			AttemptID: "ghost",
			LearnerID: "learner-1",
			Answers:   answers,
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
