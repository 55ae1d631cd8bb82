package query

import (
	"context"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT QUERIES
// Reports are stored in full and redacted on the way out. The tier
// deciding the redaction is loaded from the learner record, not taken
// from the session: a webhook upgrade mid-session must reveal full
// reports immediately, and a stale session claim must never widen
// access.
// ══════════════════════════════════════════════════════════════════════════════

// ListReportsQuery identifies the learner and the page.
type ListReportsQuery struct {
	LearnerID string
	Page      int
	PageSize  int
}

// ListReportsResult is a page of redacted report views.
type ListReportsResult struct {
	Reports []report.View
	Tier    learner.Tier
}

// ListReportsHandler handles the ListReportsQuery.
type ListReportsHandler struct {
	reportRepo  report.Repository
	learnerRepo learner.Repository
}

// NewListReportsHandler creates a new ListReportsHandler.
func NewListReportsHandler(reportRepo report.Repository, learnerRepo learner.Repository) *ListReportsHandler {
	return &ListReportsHandler{
		reportRepo:  reportRepo,
		learnerRepo: learnerRepo,
	}
}

// Handle executes the query.
func (h *ListReportsHandler) Handle(ctx context.Context, q ListReportsQuery) (*ListReportsResult, error) {
	if q.LearnerID == "" {
		return nil, shared.NewDomainError("report", "List", shared.ErrValidation, "learner ID is required")
	}

	l, err := h.learnerRepo.GetByID(ctx, q.LearnerID)
	if err != nil {
		return nil, err
	}

	reports, err := h.reportRepo.ListByLearner(ctx, q.LearnerID, shared.NewPagination(q.Page, q.PageSize))
	if err != nil {
		return nil, err
	}

	views := make([]report.View, 0, len(reports))
	for _, r := range reports {
		views = append(views, r.ViewFor(l.Tier))
	}

	return &ListReportsResult{Reports: views, Tier: l.Tier}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Single report
// ─────────────────────────────────────────────────────────────────────────────

// GetReportQuery identifies one report.
type GetReportQuery struct {
	ReportID  string
	LearnerID string
}

// GetReportResult is one redacted report view.
type GetReportResult struct {
	Report report.View
}

// GetReportHandler handles the GetReportQuery.
type GetReportHandler struct {
	reportRepo  report.Repository
	learnerRepo learner.Repository
}

// NewGetReportHandler creates a new GetReportHandler.
func NewGetReportHandler(reportRepo report.Repository, learnerRepo learner.Repository) *GetReportHandler {
	return &GetReportHandler{
		reportRepo:  reportRepo,
		learnerRepo: learnerRepo,
	}
}

// Handle executes the query. Another learner's report is reported as
// not found rather than forbidden, so report IDs cannot be probed.
func (h *GetReportHandler) Handle(ctx context.Context, q GetReportQuery) (*GetReportResult, error) {
	if q.ReportID == "" || q.LearnerID == "" {
		return nil, shared.NewDomainError("report", "Get", shared.ErrValidation, "report ID and learner ID are required")
	}

	r, err := h.reportRepo.GetByID(ctx, q.ReportID)
	if err != nil {
		return nil, err
	}
	if r.LearnerID != q.LearnerID {
		return nil, shared.ErrReportNotFound
	}

	l, err := h.learnerRepo.GetByID(ctx, q.LearnerID)
	if err != nil {
		return nil, err
	}

	return &GetReportResult{Report: r.ViewFor(l.Tier)}, nil
}
