package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

type fakeGenerator struct {
	calls int
	err   error
}

func (g *fakeGenerator) Generate(_ context.Context, learnerID string) (*report.Report, *learner.Profile, error) {
	g.calls++
	if g.err != nil {
		return nil, nil, g.err
	}
	details := "full narrative"
	rep, err := report.New("rep-1", learnerID, report.Data{
		Summary:    "steady progress",
		Details:    &details,
		Strengths:  []string{"recursion"},
		Weaknesses: []string{"pointers"},
	}, time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}
	profile := &learner.Profile{
		LearnerID:       learnerID,
		EngagementScore: 0.72,
		CompetenceMap:   map[string]float64{"recursion": 0.9},
		UpdatedAt:       time.Now().UTC(),
	}
	return rep, profile, nil
}

func registeredLearner(t *testing.T, repo *fakeLearnerRepo) *learner.Learner {
	t.Helper()
	h := NewRegisterLearnerHandler(repo, &fakeSessions{}, &capturingPublisher{}, bcrypt.MinCost)
	result, err := h.Handle(context.Background(), RegisterLearnerCommand{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return result.Learner
}

func TestTriggerReport(t *testing.T) {
	t.Run("stores the full report and the derived profile", func(t *testing.T) {
		learnerRepo := newFakeLearnerRepo()
		l := registeredLearner(t, learnerRepo)
		reportRepo := &fakeReportRepo{}
		h := NewTriggerReportHandler(&fakeGenerator{}, reportRepo, learnerRepo)

		result, err := h.Handle(context.Background(), TriggerReportCommand{LearnerID: l.ID})

		require.NoError(t, err)
		assert.Equal(t, "steady progress", result.Report.Data.Summary)
		require.Len(t, reportRepo.reports, 1)

		// Storage holds the unredacted body regardless of tier.
		require.NotNil(t, reportRepo.reports[0].Data.Details)
		assert.Equal(t, "full narrative", *reportRepo.reports[0].Data.Details)

		profile, err := learnerRepo.GetProfile(context.Background(), l.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.72, profile.EngagementScore, 1e-9)
	})

	t.Run("unknown learner fails before the generator runs", func(t *testing.T) {
		gen := &fakeGenerator{}
		h := NewTriggerReportHandler(gen, &fakeReportRepo{}, newFakeLearnerRepo())

		_, err := h.Handle(context.Background(), TriggerReportCommand{LearnerID: "ghost"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Zero(t, gen.calls)
	})

	t.Run("generator failure stores nothing", func(t *testing.T) {
		learnerRepo := newFakeLearnerRepo()
		l := registeredLearner(t, learnerRepo)
		reportRepo := &fakeReportRepo{}
		h := NewTriggerReportHandler(&fakeGenerator{err: shared.ErrEngineUnavailable}, reportRepo, learnerRepo)

		_, err := h.Handle(context.Background(), TriggerReportCommand{LearnerID: l.ID})

		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
		assert.Empty(t, reportRepo.reports)
	})
}
