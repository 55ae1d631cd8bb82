package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/learnloop/learnloop-core/config"
	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/internal/application/query"
	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT HANDLERS
// Reports leave the server already redacted for the learner's stored
// tier; handlers never see an unredacted body destined for a free
// learner.
// ══════════════════════════════════════════════════════════════════════════════

type listReportsResponse struct {
	Reports []report.View `json:"reports"`
	Tier    string        `json:"tier"`
}

// handleListReports returns the learner's reports, newest first.
// GET /api/v1/reports
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := s.deps.ListReports.Handle(r.Context(), query.ListReportsQuery{
		LearnerID: sess.LearnerID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listReportsResponse{
		Reports: result.Reports,
		Tier:    result.Tier.String(),
	})
}

// handleGetReport returns one report.
// GET /api/v1/reports/{id}
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	result, err := s.deps.GetReport.Handle(r.Context(), query.GetReportQuery{
		ReportID:  r.PathValue("id"),
		LearnerID: sess.LearnerID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result.Report)
}

type generateReportResponse struct {
	ReportID    string    `json:"report_id"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// handleGenerateReport runs on-demand report generation.
// POST /api/v1/reports/generate
//
// The response carries only the ID and the tier-free summary; the
// client fetches the report itself through the redacting read path.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	if s.deps.Flags != nil && !s.deps.Flags.IsEnabled(config.FeatureReportsOnDemand, &config.FeatureContext{
		LearnerID: sess.LearnerID,
		Tier:      sess.Tier,
	}) {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
		return
	}

	result, err := s.deps.TriggerReport.Handle(r.Context(), command.TriggerReportCommand{
		LearnerID: sess.LearnerID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rep := result.Report
	writeJSON(w, http.StatusCreated, generateReportResponse{
		ReportID:    rep.ID,
		Summary:     rep.Data.Summary,
		GeneratedAt: rep.GeneratedAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD HANDLER
// ══════════════════════════════════════════════════════════════════════════════

type dashboardResponse struct {
	LearnerID   string `json:"learner_id"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
	HintCredits int    `json:"hint_credits"`

	TotalInteractions int64 `json:"total_interactions"`
	InteractionsToday int64 `json:"interactions_today"`
	InteractionsWeek  int64 `json:"interactions_week"`

	// StreakDays is omitted when the streaks feature is off.
	StreakDays *int `json:"streak_days,omitempty"`

	RecentActivity []interaction.ActivityEntry `json:"recent_activity"`

	Profile *profileResponse `json:"profile,omitempty"`
}

type profileResponse struct {
	EngagementScore float64            `json:"engagement_score"`
	CompetenceMap   map[string]float64 `json:"competence_map,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func profileResponseFor(p *learner.Profile) *profileResponse {
	if p == nil {
		return nil
	}
	return &profileResponse{
		EngagementScore: p.EngagementScore,
		CompetenceMap:   p.CompetenceMap,
		UpdatedAt:       p.UpdatedAt,
	}
}

// handleDashboard returns the learner's aggregated dashboard.
// GET /api/v1/dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	result, err := s.deps.GetDashboard.Handle(r.Context(), query.GetDashboardQuery{
		LearnerID: sess.LearnerID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	d := result.Dashboard
	resp := dashboardResponse{
		LearnerID:         d.LearnerID,
		DisplayName:       d.DisplayName,
		Tier:              d.Tier.String(),
		HintCredits:       d.HintCredits,
		TotalInteractions: d.TotalInteractions,
		InteractionsToday: d.InteractionsToday,
		InteractionsWeek:  d.InteractionsWeek,
		RecentActivity:    d.RecentActivity,
		Profile:           profileResponseFor(d.Profile),
	}
	if d.StreakDays >= 0 {
		streak := d.StreakDays
		resp.StreakDays = &streak
	}

	writeJSON(w, http.StatusOK, resp)
}
