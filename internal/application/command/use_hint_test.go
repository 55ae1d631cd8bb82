package command

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func TestUseHint(t *testing.T) {
	t.Run("debits one credit and reveals the hint", func(t *testing.T) {
		ledger := &fakeLedger{balance: 3, hints: map[string]string{"node-1": "check the base case"}}
		pub := &capturingPublisher{}
		h := NewUseHintHandler(ledger, pub)

		result, err := h.Handle(context.Background(), UseHintCommand{
			LearnerID:     "learner-1",
			ContentNodeID: "node-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "check the base case", result.Hint)
		assert.Equal(t, 2, result.RemainingCredits)

		events := pub.published()
		require.Len(t, events, 1)
		assert.Equal(t, shared.EventCreditsDebited, events[0].EventType())
	})

	t.Run("zero balance fails without revealing the hint", func(t *testing.T) {
		ledger := &fakeLedger{balance: 0, hints: map[string]string{"node-1": "secret"}}
		pub := &capturingPublisher{}
		h := NewUseHintHandler(ledger, pub)

		result, err := h.Handle(context.Background(), UseHintCommand{
			LearnerID:     "learner-1",
			ContentNodeID: "node-1",
		})

		assert.ErrorIs(t, err, shared.ErrInsufficientCredits)
		assert.Nil(t, result)
		assert.Empty(t, pub.published())
	})

	t.Run("unavailable hint leaves the balance untouched", func(t *testing.T) {
		ledger := &fakeLedger{balance: 3, hints: map[string]string{}}
		h := NewUseHintHandler(ledger, &capturingPublisher{})

		_, err := h.Handle(context.Background(), UseHintCommand{
			LearnerID:     "learner-1",
			ContentNodeID: "node-without-hint",
		})

		assert.ErrorIs(t, err, shared.ErrHintUnavailable)
		assert.Equal(t, 3, ledger.balance)
	})

	// Concurrent debits serialize on the learner's balance: with N
	// credits and more than N racing requests, exactly N succeed and
	// the balance never goes negative.
	t.Run("concurrent debits never oversell", func(t *testing.T) {
		const credits = 5
		const racers = 20

		ledger := &fakeLedger{balance: credits, hints: map[string]string{"node-1": "hint"}}
		h := NewUseHintHandler(ledger, &capturingPublisher{})

		var wg sync.WaitGroup
		results := make(chan error, racers)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Handle(context.Background(), UseHintCommand{
					LearnerID:     "learner-1",
					ContentNodeID: "node-1",
				})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else {
				assert.ErrorIs(t, err, shared.ErrInsufficientCredits)
			}
		}

		assert.Equal(t, credits, succeeded)
		assert.Equal(t, 0, ledger.balance)
	})
}
