package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

func reportFixture(t *testing.T, id, learnerID string) *report.Report {
	t.Helper()
	details := "full narrative"
	engagement := 0.7
	r, err := report.New(id, learnerID, report.Data{
		Summary:         "summary for " + learnerID,
		Details:         &details,
		Strengths:       []string{"slices"},
		Weaknesses:      []string{"channels"},
		EngagementScore: &engagement,
	}, time.Now().UTC())
	require.NoError(t, err)
	return r
}

func TestListReports(t *testing.T) {
	setup := func(t *testing.T, tier learner.Tier) (*ListReportsHandler, *fakeLearnerRepo) {
		t.Helper()
		learners := &fakeLearnerRepo{
			learners: map[string]*learner.Learner{"learner-1": learnerFixture("learner-1", tier)},
			profiles: map[string]*learner.Profile{},
		}
		reports := &fakeReportRepo{}
		require.NoError(t, reports.Create(context.Background(), reportFixture(t, "rep-1", "learner-1")))
		require.NoError(t, reports.Create(context.Background(), reportFixture(t, "rep-2", "other")))
		return NewListReportsHandler(reports, learners), learners
	}

	t.Run("free tier sees only summary and upgrade prompt", func(t *testing.T) {
		h, _ := setup(t, learner.TierFree)

		result, err := h.Handle(context.Background(), ListReportsQuery{LearnerID: "learner-1"})

		require.NoError(t, err)
		require.Len(t, result.Reports, 1)
		got := result.Reports[0].Data
		assert.Equal(t, "summary for learner-1", got.Summary)
		assert.Nil(t, got.Details)
		assert.Nil(t, got.Strengths)
		assert.Nil(t, got.Weaknesses)
		assert.Nil(t, got.EngagementScore)
		assert.Equal(t, report.UpgradePrompt, got.UpgradePrompt)
	})

	t.Run("premium tier sees everything", func(t *testing.T) {
		h, _ := setup(t, learner.TierPremium)

		result, err := h.Handle(context.Background(), ListReportsQuery{LearnerID: "learner-1"})

		require.NoError(t, err)
		require.Len(t, result.Reports, 1)
		got := result.Reports[0].Data
		require.NotNil(t, got.Details)
		assert.Equal(t, "full narrative", *got.Details)
		assert.Equal(t, []string{"slices"}, got.Strengths)
		assert.Empty(t, got.UpgradePrompt)
	})

	// The tier comes from the learner record, so an upgrade applied by
	// the payment webhook reveals past reports on the very next read.
	t.Run("stored tier decides redaction, not the session", func(t *testing.T) {
		h, learners := setup(t, learner.TierFree)

		before, err := h.Handle(context.Background(), ListReportsQuery{LearnerID: "learner-1"})
		require.NoError(t, err)
		assert.Nil(t, before.Reports[0].Data.Details)

		learners.learners["learner-1"].Upgrade()

		after, err := h.Handle(context.Background(), ListReportsQuery{LearnerID: "learner-1"})
		require.NoError(t, err)
		assert.NotNil(t, after.Reports[0].Data.Details)
	})

	t.Run("unknown learner", func(t *testing.T) {
		h, _ := setup(t, learner.TierFree)

		_, err := h.Handle(context.Background(), ListReportsQuery{LearnerID: "ghost"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGetReport(t *testing.T) {
	setup := func(t *testing.T) *GetReportHandler {
		t.Helper()
		learners := &fakeLearnerRepo{
			learners: map[string]*learner.Learner{
				"learner-1": learnerFixture("learner-1", learner.TierPremium),
				"intruder":  learnerFixture("intruder", learner.TierPremium),
			},
			profiles: map[string]*learner.Profile{},
		}
		reports := &fakeReportRepo{}
		require.NoError(t, reports.Create(context.Background(), reportFixture(t, "rep-1", "learner-1")))
		return NewGetReportHandler(reports, learners)
	}

	t.Run("owner reads the report", func(t *testing.T) {
		h := setup(t)

		result, err := h.Handle(context.Background(), GetReportQuery{ReportID: "rep-1", LearnerID: "learner-1"})

		require.NoError(t, err)
		assert.Equal(t, "rep-1", result.Report.ID)
	})

	t.Run("someone else's report reads as not found", func(t *testing.T) {
		h := setup(t)

		_, err := h.Handle(context.Background(), GetReportQuery{ReportID: "rep-1", LearnerID: "intruder"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NotErrorIs(t, err, shared.ErrForbidden)
	})
}
