package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/report"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT GENERATOR
// ══════════════════════════════════════════════════════════════════════════════

// ReportGenerator adapts the engine client to report.Generator.
type ReportGenerator struct {
	client *Client
}

// Compile-time interface check.
var _ report.Generator = (*ReportGenerator)(nil)

// NewReportGenerator creates a generator over an engine client.
func NewReportGenerator(client *Client) *ReportGenerator {
	return &ReportGenerator{client: client}
}

// Generate asks the engine for a full analysis and maps it onto the
// domain report plus the derived profile.
func (g *ReportGenerator) Generate(ctx context.Context, learnerID string) (*report.Report, *learner.Profile, error) {
	dto, err := g.client.GenerateReport(ctx, learnerID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()

	r, err := report.New(uuid.NewString(), learnerID, report.Data{
		Summary:         dto.Summary,
		Details:         dto.Details,
		Strengths:       dto.Strengths,
		Weaknesses:      dto.Weaknesses,
		EngagementScore: dto.EngagementScore,
	}, now)
	if err != nil {
		return nil, nil, err
	}

	profile := &learner.Profile{
		LearnerID:     learnerID,
		CompetenceMap: dto.CompetenceMap,
		UpdatedAt:     now,
	}
	if dto.EngagementScore != nil {
		profile.EngagementScore = *dto.EngagementScore
	}

	return r, profile, nil
}
