package saga

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

type fakeTrigger struct {
	mu       sync.Mutex
	learners []string
	err      error
}

func (t *fakeTrigger) Handle(_ context.Context, cmd command.TriggerReportCommand) (*command.TriggerReportResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return nil, t.err
	}
	t.learners = append(t.learners, cmd.LearnerID)
	return &command.TriggerReportResult{}, nil
}

func (t *fakeTrigger) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.learners)
}

func scoredEvent(learnerID string, outcome quiz.Outcome) shared.Event {
	return shared.NewQuizScoredEvent("attempt-1", learnerID, 0.9, outcome.String())
}

func TestMasteryFlow(t *testing.T) {
	t.Run("passed quiz regenerates the report", func(t *testing.T) {
		trigger := &fakeTrigger{}
		s := NewMasteryFlowSaga(trigger, nil, DefaultMasteryFlowConfig())

		require.NoError(t, s.Handle(scoredEvent("learner-1", quiz.OutcomePassed)))

		assert.Equal(t, 1, trigger.calls())
		triggered, skipped := s.Stats()
		assert.Equal(t, int64(1), triggered)
		assert.Zero(t, skipped)
	})

	t.Run("failed quiz does nothing", func(t *testing.T) {
		trigger := &fakeTrigger{}
		s := NewMasteryFlowSaga(trigger, nil, DefaultMasteryFlowConfig())

		require.NoError(t, s.Handle(scoredEvent("learner-1", quiz.OutcomeFailed)))

		assert.Zero(t, trigger.calls())
	})

	t.Run("cooldown absorbs a fast run of passes", func(t *testing.T) {
		trigger := &fakeTrigger{}
		s := NewMasteryFlowSaga(trigger, nil, MasteryFlowConfig{Cooldown: time.Hour})

		for i := 0; i < 5; i++ {
			require.NoError(t, s.Handle(scoredEvent("learner-1", quiz.OutcomePassed)))
		}

		assert.Equal(t, 1, trigger.calls())
		triggered, skipped := s.Stats()
		assert.Equal(t, int64(1), triggered)
		assert.Equal(t, int64(4), skipped)
	})

	t.Run("cooldown is per learner", func(t *testing.T) {
		trigger := &fakeTrigger{}
		s := NewMasteryFlowSaga(trigger, nil, MasteryFlowConfig{Cooldown: time.Hour})

		require.NoError(t, s.Handle(scoredEvent("learner-1", quiz.OutcomePassed)))
		require.NoError(t, s.Handle(scoredEvent("learner-2", quiz.OutcomePassed)))

		assert.Equal(t, 2, trigger.calls())
	})

	t.Run("trigger failure releases the slot", func(t *testing.T) {
		trigger := &fakeTrigger{err: shared.ErrEngineUnavailable}
		s := NewMasteryFlowSaga(trigger, nil, MasteryFlowConfig{Cooldown: time.Hour})

		require.NoError(t, s.Handle(scoredEvent("learner-1", quiz.OutcomePassed)))

		trigger.mu.Lock()
		trigger.err = nil
		trigger.mu.Unlock()

		require.NoError(t, s.Handle(scoredEvent("learner-1", quiz.OutcomePassed)))
		assert.Equal(t, 1, trigger.calls())
	})
}
