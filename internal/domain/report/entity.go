// Package report contains the learner report domain model and the
// tier-based redaction rules applied before a report leaves the core.
package report

import (
	"context"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// UpgradePrompt is the message substituted into redacted reports.
const UpgradePrompt = "Upgrade to premium to unlock your full learning report."

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: REPORT
// ══════════════════════════════════════════════════════════════════════════════

// Data is the analytical body of a report as produced by the generator.
// Stored in full regardless of tier; redaction happens on the way out.
type Data struct {
	// Summary is a short overview paragraph. Visible to every tier.
	Summary string `json:"summary"`

	// Details is the full narrative analysis. Premium only; the one
	// field redaction withholds.
	Details *string `json:"details"`

	// Strengths lists topics the learner handles well. Visible to
	// every tier.
	Strengths []string `json:"strengths"`

	// Weaknesses lists topics needing work. Visible to every tier.
	Weaknesses []string `json:"weaknesses"`

	// EngagementScore is the derived engagement metric. Visible to
	// every tier.
	EngagementScore *float64 `json:"engagement_score"`

	// UpgradePrompt is set only on redacted copies.
	UpgradePrompt string `json:"upgrade_prompt,omitempty"`
}

// Report is a generated learner report.
type Report struct {
	// ID is the unique report identifier (UUID in string form).
	ID string

	// LearnerID is the learner the report describes.
	LearnerID string

	// Data is the full, unredacted report body.
	Data Data

	// GeneratedAt is when the generator produced the report.
	GeneratedAt time.Time
}

// New creates a report from generator output.
func New(id, learnerID string, data Data, generatedAt time.Time) (*Report, error) {
	if id == "" {
		return nil, shared.NewDomainError("report", "New", shared.ErrInvalidID, "report ID is required")
	}
	if learnerID == "" {
		return nil, shared.NewDomainError("report", "New", shared.ErrInvalidID, "learner ID is required")
	}
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}
	return &Report{
		ID:          id,
		LearnerID:   learnerID,
		Data:        data,
		GeneratedAt: generatedAt,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REDACTION
// ══════════════════════════════════════════════════════════════════════════════

// Redact returns the report body a learner of the given tier may see.
//
// Pure function of (data, tier): premium passes through untouched,
// free loses the narrative details and gains an upgrade prompt. The
// summary, strengths, weaknesses, and engagement score stay visible on
// every tier. The input is never mutated and storage always holds the
// full report, so an upgrade reveals the details retroactively.
func Redact(data Data, tier learner.Tier) Data {
	if tier.SeesFullReports() {
		return data
	}
	redacted := data
	redacted.Details = nil
	redacted.UpgradePrompt = UpgradePrompt
	return redacted
}

// View is a redacted report ready for delivery.
type View struct {
	ID          string    `json:"id"`
	LearnerID   string    `json:"learner_id"`
	Data        Data      `json:"data"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ViewFor builds the outward representation of a report for a tier.
func (r *Report) ViewFor(tier learner.Tier) View {
	return View{
		ID:          r.ID,
		LearnerID:   r.LearnerID,
		Data:        Redact(r.Data, tier),
		GeneratedAt: r.GeneratedAt,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository persists reports. Storage always receives the full body.
type Repository interface {
	// Create inserts a generated report.
	Create(ctx context.Context, r *Report) error

	// GetByID returns a report by ID.
	// Returns shared.ErrReportNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Report, error)

	// ListByLearner returns a learner's reports, newest first.
	ListByLearner(ctx context.Context, learnerID string, p shared.Pagination) ([]*Report, error)
}

// Generator produces a fresh report from a learner's accumulated
// history, along with the derived profile the same analysis yields.
// Implementations call the external personalization engine.
type Generator interface {
	Generate(ctx context.Context, learnerID string) (*Report, *learner.Profile, error)
}
