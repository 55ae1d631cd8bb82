package command

import (
	"context"
	"encoding/json"

	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT QUIZ COMMAND
// Records a submission, obtains the oracle's verdict, and finalizes the
// attempt. An attempt is scored at most once: the in-memory state
// machine rejects resubmission of a scored attempt, and the storage
// guard rejects a concurrent second finalize that slipped past it.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitQuizCommand contains a learner's answers for an attempt.
type SubmitQuizCommand struct {
	// AttemptID is the attempt being submitted.
	AttemptID string

	// LearnerID is the authenticated learner. Must own the attempt.
	LearnerID string

	// Answers is the submission payload.
	Answers json.RawMessage
}

// Validate validates the command.
func (c SubmitQuizCommand) Validate() error {
	if c.AttemptID == "" {
		return shared.NewDomainError("quiz", "Submit", shared.ErrValidation, "attempt ID is required")
	}
	if c.LearnerID == "" {
		return shared.NewDomainError("quiz", "Submit", shared.ErrValidation, "learner ID is required")
	}
	if len(c.Answers) == 0 || string(c.Answers) == "null" {
		return shared.ErrNoAnswersProvided
	}
	return nil
}

// SubmitQuizResult contains the scored attempt.
type SubmitQuizResult struct {
	Attempt *quiz.Attempt
}

// SubmitQuizHandler handles the SubmitQuizCommand.
type SubmitQuizHandler struct {
	attemptRepo quiz.Repository
	oracle      quiz.Oracle
	publisher   shared.EventPublisher
}

// NewSubmitQuizHandler creates a new SubmitQuizHandler.
func NewSubmitQuizHandler(
	attemptRepo quiz.Repository,
	oracle quiz.Oracle,
	publisher shared.EventPublisher,
) *SubmitQuizHandler {
	return &SubmitQuizHandler{
		attemptRepo: attemptRepo,
		oracle:      oracle,
		publisher:   publisher,
	}
}

// Handle executes the submission and scoring.
//
// Errors map directly onto the API surface: shared.ErrForbidden when
// the attempt belongs to someone else, shared.ErrAlreadyScored on
// resubmission, external-service kinds when the oracle is down (the
// attempt stays submitted and can be scored on retry).
func (h *SubmitQuizHandler) Handle(ctx context.Context, cmd SubmitQuizCommand) (*SubmitQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	attempt, err := h.attemptRepo.GetByID(ctx, cmd.AttemptID)
	if err != nil {
		return nil, err
	}

	if err := attempt.EnsureOwnedBy(cmd.LearnerID); err != nil {
		return nil, err
	}

	if err := attempt.Submit(cmd.Answers); err != nil {
		return nil, err
	}

	// The submission is durable before the oracle is consulted, so an
	// oracle failure leaves a submitted attempt a retry can score.
	if err := h.attemptRepo.MarkSubmitted(ctx, attempt); err != nil {
		return nil, err
	}

	evaluation, err := h.oracle.Evaluate(ctx, attempt.Questions, attempt.Answers)
	if err != nil {
		return nil, err
	}

	if err := attempt.RecordScore(evaluation.Score, evaluation.Feedback); err != nil {
		return nil, err
	}

	if err := h.attemptRepo.FinalizeScore(ctx, attempt); err != nil {
		return nil, err
	}

	_ = h.publisher.Publish(shared.NewQuizScoredEvent(
		attempt.ID, attempt.LearnerID, attempt.Score.Float64(), attempt.Outcome.String(),
	))

	return &SubmitQuizResult{Attempt: attempt}, nil
}
