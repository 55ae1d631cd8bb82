package query

import (
	"context"
	"errors"
	"time"

	"github.com/learnloop/learnloop-core/config"
	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD QUERY
// Aggregates a learner's activity counters, streak, and derived profile
// into one read. Counters are computed over UTC windows.
// ══════════════════════════════════════════════════════════════════════════════

// InteractionStats exposes the aggregate reads the dashboard needs.
// Implemented by the Postgres interaction repository.
type InteractionStats interface {
	// CountByLearner returns the learner's all-time interaction count.
	CountByLearner(ctx context.Context, learnerID string) (int64, error)

	// CountByLearnerSince counts interactions in [since, until].
	CountByLearnerSince(ctx context.Context, learnerID string, since, until time.Time) (int64, error)

	// ActiveDayStreak returns the number of consecutive UTC days,
	// ending today or yesterday, with at least one interaction.
	ActiveDayStreak(ctx context.Context, learnerID string) (int, error)

	// RecentByLearner returns the learner's newest interactions with
	// node titles attached, newest first.
	RecentByLearner(ctx context.Context, learnerID string, limit int) ([]interaction.ActivityEntry, error)
}

// recentActivityLimit caps the dashboard's recent-interactions list.
const recentActivityLimit = 5

// GetDashboardQuery identifies the learner.
type GetDashboardQuery struct {
	LearnerID string
}

// Dashboard is the aggregated read model.
type Dashboard struct {
	LearnerID   string
	DisplayName string
	Tier        learner.Tier
	HintCredits int

	TotalInteractions int64
	InteractionsToday int64
	InteractionsWeek  int64

	// StreakDays is -1 when the streaks feature is off for this learner.
	StreakDays int

	// RecentActivity holds the newest interactions, newest first.
	RecentActivity []interaction.ActivityEntry

	// Profile is nil until the first report generation produces one.
	Profile *learner.Profile
}

// GetDashboardResult wraps the dashboard.
type GetDashboardResult struct {
	Dashboard *Dashboard
}

// GetDashboardHandler handles the GetDashboardQuery.
type GetDashboardHandler struct {
	learnerRepo learner.Repository
	stats       InteractionStats
	flags       *config.FeatureFlags
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(
	learnerRepo learner.Repository,
	stats InteractionStats,
	flags *config.FeatureFlags,
) *GetDashboardHandler {
	return &GetDashboardHandler{
		learnerRepo: learnerRepo,
		stats:       stats,
		flags:       flags,
	}
}

// Handle executes the query.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*GetDashboardResult, error) {
	if q.LearnerID == "" {
		return nil, shared.NewDomainError("learner", "Dashboard", shared.ErrValidation, "learner ID is required")
	}

	l, err := h.learnerRepo.GetByID(ctx, q.LearnerID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		LearnerID:   l.ID,
		DisplayName: l.DisplayName,
		Tier:        l.Tier,
		HintCredits: l.HintCredits.Int(),
		StreakDays:  -1,
	}

	now := timeutil.Now()

	if d.TotalInteractions, err = h.stats.CountByLearner(ctx, q.LearnerID); err != nil {
		return nil, err
	}

	dayStart, dayEnd := timeutil.DayWindow(now)
	if d.InteractionsToday, err = h.stats.CountByLearnerSince(ctx, q.LearnerID, dayStart, dayEnd); err != nil {
		return nil, err
	}

	weekStart, weekEnd := timeutil.WeekWindow(now)
	if d.InteractionsWeek, err = h.stats.CountByLearnerSince(ctx, q.LearnerID, weekStart, weekEnd); err != nil {
		return nil, err
	}

	streaksOn := h.flags == nil || h.flags.IsEnabled(config.FeatureDashboardStreaks, &config.FeatureContext{
		LearnerID: l.ID,
		Tier:      l.Tier.String(),
	})
	if streaksOn {
		if d.StreakDays, err = h.stats.ActiveDayStreak(ctx, q.LearnerID); err != nil {
			return nil, err
		}
	}

	if d.RecentActivity, err = h.stats.RecentByLearner(ctx, q.LearnerID, recentActivityLimit); err != nil {
		return nil, err
	}

	profile, err := h.learnerRepo.GetProfile(ctx, q.LearnerID)
	switch {
	case err == nil:
		d.Profile = profile
	case errors.Is(err, shared.ErrNotFound):
		// No report generated yet; the dashboard ships without a profile.
	default:
		return nil, err
	}

	return &GetDashboardResult{Dashboard: d}, nil
}
