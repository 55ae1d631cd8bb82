package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
)

func fullData() Data {
	details := "You consistently finish videos but skip articles."
	engagement := 0.72
	return Data{
		Summary:         "Strong week with steady progress.",
		Details:         &details,
		Strengths:       []string{"concurrency", "interfaces"},
		Weaknesses:      []string{"generics"},
		EngagementScore: &engagement,
	}
}

func TestRedact(t *testing.T) {
	t.Run("premium sees everything", func(t *testing.T) {
		data := fullData()

		got := Redact(data, learner.TierPremium)

		assert.Equal(t, data, got)
		assert.Empty(t, got.UpgradePrompt)
	})

	t.Run("free loses only the details", func(t *testing.T) {
		data := fullData()

		got := Redact(data, learner.TierFree)

		assert.Nil(t, got.Details)
		assert.Equal(t, UpgradePrompt, got.UpgradePrompt)

		// Everything but the narrative details passes through.
		assert.Equal(t, data.Summary, got.Summary)
		assert.Equal(t, []string{"concurrency", "interfaces"}, got.Strengths)
		assert.Equal(t, []string{"generics"}, got.Weaknesses)
		require.NotNil(t, got.EngagementScore)
		assert.Equal(t, *data.EngagementScore, *got.EngagementScore)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		data := fullData()

		_ = Redact(data, learner.TierFree)

		require.NotNil(t, data.Details)
		require.NotNil(t, data.EngagementScore)
		assert.Len(t, data.Strengths, 2)
	})

	t.Run("redaction is deterministic", func(t *testing.T) {
		data := fullData()
		assert.Equal(t, Redact(data, learner.TierFree), Redact(data, learner.TierFree))
	})
}

func TestViewFor(t *testing.T) {
	r, err := New(uuid.NewString(), uuid.NewString(), fullData(), time.Now().UTC())
	require.NoError(t, err)

	t.Run("free view is redacted", func(t *testing.T) {
		view := r.ViewFor(learner.TierFree)

		assert.Equal(t, r.ID, view.ID)
		assert.Nil(t, view.Data.Details)
		assert.Equal(t, r.Data.Strengths, view.Data.Strengths)
		assert.Equal(t, r.Data.Weaknesses, view.Data.Weaknesses)
		assert.Equal(t, UpgradePrompt, view.Data.UpgradePrompt)
		// The stored report stays intact for a later upgrade.
		assert.NotNil(t, r.Data.Details)
	})

	t.Run("premium view passes through", func(t *testing.T) {
		view := r.ViewFor(learner.TierPremium)

		assert.Equal(t, r.Data, view.Data)
	})
}

func TestNew(t *testing.T) {
	t.Run("zero generation time defaults to now", func(t *testing.T) {
		r, err := New(uuid.NewString(), uuid.NewString(), fullData(), time.Time{})

		require.NoError(t, err)
		assert.False(t, r.GeneratedAt.IsZero())
	})

	t.Run("missing IDs rejected", func(t *testing.T) {
		_, err := New("", uuid.NewString(), fullData(), time.Now())
		assert.Error(t, err)

		_, err = New(uuid.NewString(), "", fullData(), time.Now())
		assert.Error(t, err)
	})
}
