package command

import (
	"context"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRIGGER REPORT COMMAND
// Runs the report generator for a learner and persists both outputs:
// the full report body and the derived learning profile. Redaction is
// never applied here; storage always holds the complete report.
// ══════════════════════════════════════════════════════════════════════════════

// TriggerReportCommand identifies the learner to analyze.
type TriggerReportCommand struct {
	LearnerID string
}

// Validate validates the command.
func (c TriggerReportCommand) Validate() error {
	if c.LearnerID == "" {
		return shared.NewDomainError("report", "Trigger", shared.ErrValidation, "learner ID is required")
	}
	return nil
}

// TriggerReportResult contains the stored report.
type TriggerReportResult struct {
	Report *report.Report
}

// TriggerReportHandler handles the TriggerReportCommand.
type TriggerReportHandler struct {
	generator   report.Generator
	reportRepo  report.Repository
	learnerRepo learner.Repository
}

// NewTriggerReportHandler creates a new TriggerReportHandler.
func NewTriggerReportHandler(
	generator report.Generator,
	reportRepo report.Repository,
	learnerRepo learner.Repository,
) *TriggerReportHandler {
	return &TriggerReportHandler{
		generator:   generator,
		reportRepo:  reportRepo,
		learnerRepo: learnerRepo,
	}
}

// Handle executes the generation.
//
// The learner lookup runs first so an unknown ID fails with
// shared.ErrLearnerNotFound instead of a wasted engine call.
func (h *TriggerReportHandler) Handle(ctx context.Context, cmd TriggerReportCommand) (*TriggerReportResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.learnerRepo.GetByID(ctx, cmd.LearnerID); err != nil {
		return nil, err
	}

	rep, profile, err := h.generator.Generate(ctx, cmd.LearnerID)
	if err != nil {
		return nil, err
	}

	if err := h.reportRepo.Create(ctx, rep); err != nil {
		return nil, err
	}

	// The profile is a derived projection; losing one update is
	// acceptable, losing the report is not.
	if profile != nil {
		if err := h.learnerRepo.UpsertProfile(ctx, profile); err != nil {
			return nil, shared.WrapError("report", "Trigger", shared.ErrInternal, "report stored but profile update failed", err)
		}
	}

	return &TriggerReportResult{Report: rep}, nil
}
