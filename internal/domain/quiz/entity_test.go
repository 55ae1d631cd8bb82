package quiz

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

var testQuestions = json.RawMessage(`[{"question":"What is a goroutine?"}]`)

func newTestAttempt(t *testing.T) *Attempt {
	t.Helper()
	a, err := NewAttempt(uuid.NewString(), uuid.NewString(), uuid.NewString(), testQuestions)
	require.NoError(t, err)
	return a
}

func TestNewAttempt(t *testing.T) {
	t.Run("starts in created state", func(t *testing.T) {
		a := newTestAttempt(t)

		assert.Equal(t, StateCreated, a.State)
		assert.Equal(t, OutcomeNone, a.Outcome)
		assert.Nil(t, a.SubmittedAt)
		assert.Nil(t, a.ScoredAt)
	})

	t.Run("rejects empty question set", func(t *testing.T) {
		for _, questions := range []json.RawMessage{nil, json.RawMessage(`null`), json.RawMessage(`[]`)} {
			_, err := NewAttempt(uuid.NewString(), uuid.NewString(), uuid.NewString(), questions)
			assert.ErrorIs(t, err, shared.ErrEmptyQuestionSet)
		}
	})

	t.Run("rejects missing IDs", func(t *testing.T) {
		_, err := NewAttempt("", uuid.NewString(), uuid.NewString(), testQuestions)
		assert.True(t, errors.Is(err, shared.ErrInvalidID))

		_, err = NewAttempt(uuid.NewString(), "", uuid.NewString(), testQuestions)
		assert.True(t, errors.Is(err, shared.ErrInvalidID))
	})
}

func TestAttemptSubmit(t *testing.T) {
	answers := json.RawMessage(`[{"answer":"a lightweight thread"}]`)

	t.Run("created to submitted", func(t *testing.T) {
		a := newTestAttempt(t)

		err := a.Submit(answers)

		require.NoError(t, err)
		assert.Equal(t, StateSubmitted, a.State)
		require.NotNil(t, a.SubmittedAt)
		assert.JSONEq(t, string(answers), string(a.Answers))
	})

	t.Run("empty answers rejected", func(t *testing.T) {
		a := newTestAttempt(t)

		err := a.Submit(nil)

		assert.ErrorIs(t, err, shared.ErrNoAnswersProvided)
		assert.Equal(t, StateCreated, a.State)
	})

	t.Run("resubmission before scoring replaces answers", func(t *testing.T) {
		a := newTestAttempt(t)
		require.NoError(t, a.Submit(answers))

		revised := json.RawMessage(`[{"answer":"revised"}]`)
		err := a.Submit(revised)

		require.NoError(t, err)
		assert.JSONEq(t, string(revised), string(a.Answers))
	})

	t.Run("submission after scoring is rejected", func(t *testing.T) {
		a := newTestAttempt(t)
		require.NoError(t, a.Submit(answers))
		require.NoError(t, a.RecordScore(0.9, nil))

		err := a.Submit(answers)

		assert.ErrorIs(t, err, shared.ErrAlreadyScored)
	})
}

func TestAttemptRecordScore(t *testing.T) {
	answers := json.RawMessage(`[{"answer":"x"}]`)

	t.Run("scoring finalizes the attempt", func(t *testing.T) {
		a := newTestAttempt(t)
		require.NoError(t, a.Submit(answers))

		err := a.RecordScore(0.85, json.RawMessage(`["well done"]`))

		require.NoError(t, err)
		assert.Equal(t, StateScored, a.State)
		assert.Equal(t, shared.Score(0.85), a.Score)
		assert.Equal(t, OutcomePassed, a.Outcome)
		require.NotNil(t, a.ScoredAt)
	})

	t.Run("cannot score without a submission", func(t *testing.T) {
		a := newTestAttempt(t)

		err := a.RecordScore(0.5, nil)

		assert.True(t, errors.Is(err, shared.ErrStateTransition))
	})

	t.Run("second score is rejected and the first stands", func(t *testing.T) {
		a := newTestAttempt(t)
		require.NoError(t, a.Submit(answers))
		require.NoError(t, a.RecordScore(0.9, nil))

		err := a.RecordScore(0.1, nil)

		assert.ErrorIs(t, err, shared.ErrAlreadyScored)
		assert.Equal(t, shared.Score(0.9), a.Score)
		assert.Equal(t, OutcomePassed, a.Outcome)
	})

	t.Run("out of range score rejected", func(t *testing.T) {
		a := newTestAttempt(t)
		require.NoError(t, a.Submit(answers))

		err := a.RecordScore(1.5, nil)

		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, StateSubmitted, a.State)
	})
}

func TestOutcomeForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  Outcome
	}{
		{"zero fails", 0, OutcomeFailed},
		{"just below threshold fails", 0.79, OutcomeFailed},
		{"threshold exactly passes", 0.8, OutcomePassed},
		{"above threshold passes", 0.95, OutcomePassed},
		{"perfect passes", 1, OutcomePassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutcomeForScore(shared.Score(tt.score)))
		})
	}
}

func TestAttemptOwnership(t *testing.T) {
	a := newTestAttempt(t)

	assert.NoError(t, a.EnsureOwnedBy(a.LearnerID))
	assert.ErrorIs(t, a.EnsureOwnedBy(uuid.NewString()), shared.ErrForbidden)
}
