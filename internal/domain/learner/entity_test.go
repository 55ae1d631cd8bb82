package learner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func TestNewTier(t *testing.T) {
	tests := []struct {
		input   string
		want    Tier
		wantErr bool
	}{
		{"FREE", TierFree, false},
		{"PREMIUM", TierPremium, false},
		{"free", "", true},
		{"GOLD", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NewTier(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestTierSeesFullReports(t *testing.T) {
	assert.False(t, TierFree.SeesFullReports())
	assert.True(t, TierPremium.SeesFullReports())
}

func TestHintCredits(t *testing.T) {
	t.Run("debit decrements by one", func(t *testing.T) {
		c := HintCredits(3)
		assert.True(t, c.CanDebit())
		assert.Equal(t, HintCredits(2), c.Debit())
	})

	t.Run("zero balance cannot debit", func(t *testing.T) {
		c := HintCredits(0)
		assert.False(t, c.CanDebit())
		assert.Equal(t, HintCredits(0), c.Debit())
	})

	t.Run("add grants credits", func(t *testing.T) {
		c := HintCredits(5)
		assert.Equal(t, HintCredits(105), c.Add(UpgradeHintCredits))
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		_, err := NewHintCredits(-1)
		assert.ErrorIs(t, err, shared.ErrNegativeValue)
	})
}

func TestNewLearner(t *testing.T) {
	email, err := shared.NewEmail("alice@example.com")
	require.NoError(t, err)

	t.Run("new learner is free with starter credits", func(t *testing.T) {
		l, err := NewLearner(uuid.NewString(), email, "$2a$10$hash", "Alice")

		require.NoError(t, err)
		assert.Equal(t, TierFree, l.Tier)
		assert.Equal(t, HintCredits(StarterHintCredits), l.HintCredits)
		assert.False(t, l.CreatedAt.IsZero())
	})

	t.Run("missing password hash rejected", func(t *testing.T) {
		_, err := NewLearner(uuid.NewString(), email, "", "Alice")
		assert.ErrorIs(t, err, shared.ErrEmptyValue)
	})

	t.Run("missing ID rejected", func(t *testing.T) {
		_, err := NewLearner("", email, "$2a$10$hash", "Alice")
		assert.ErrorIs(t, err, shared.ErrInvalidID)
	})
}

func TestLearnerUpgrade(t *testing.T) {
	email, err := shared.NewEmail("bob@example.com")
	require.NoError(t, err)

	l, err := NewLearner(uuid.NewString(), email, "$2a$10$hash", "Bob")
	require.NoError(t, err)

	l.Upgrade()

	assert.Equal(t, TierPremium, l.Tier)
	assert.Equal(t, HintCredits(StarterHintCredits+UpgradeHintCredits), l.HintCredits)
}
