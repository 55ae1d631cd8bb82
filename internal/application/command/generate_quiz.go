package command

import (
	"context"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GENERATE QUIZ COMMAND
// Builds a quiz attempt from a content node's gradable source text.
// The oracle's question set is stored verbatim on the attempt so
// scoring later evaluates exactly what the learner saw.
// ══════════════════════════════════════════════════════════════════════════════

// GenerateQuizCommand identifies the learner and source content.
type GenerateQuizCommand struct {
	LearnerID     string
	ContentNodeID string
}

// Validate validates the command.
func (c GenerateQuizCommand) Validate() error {
	if c.LearnerID == "" {
		return shared.NewDomainError("quiz", "Generate", shared.ErrValidation, "learner ID is required")
	}
	if c.ContentNodeID == "" {
		return shared.NewDomainError("quiz", "Generate", shared.ErrValidation, "content node ID is required")
	}
	return nil
}

// GenerateQuizResult contains the created attempt.
type GenerateQuizResult struct {
	Attempt *quiz.Attempt
}

// GenerateQuizHandler handles the GenerateQuizCommand.
type GenerateQuizHandler struct {
	contentRepo content.Repository
	attemptRepo quiz.Repository
	oracle      quiz.Oracle
}

// NewGenerateQuizHandler creates a new GenerateQuizHandler.
func NewGenerateQuizHandler(
	contentRepo content.Repository,
	attemptRepo quiz.Repository,
	oracle quiz.Oracle,
) *GenerateQuizHandler {
	return &GenerateQuizHandler{
		contentRepo: contentRepo,
		attemptRepo: attemptRepo,
		oracle:      oracle,
	}
}

// Handle executes the generation.
// Returns shared.ErrNoSourceText when the node has nothing gradable.
func (h *GenerateQuizHandler) Handle(ctx context.Context, cmd GenerateQuizCommand) (*GenerateQuizResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	node, err := h.contentRepo.GetByID(ctx, cmd.ContentNodeID)
	if err != nil {
		return nil, err
	}

	sourceText, err := node.SourceText()
	if err != nil {
		return nil, err
	}

	questions, err := h.oracle.GenerateQuestions(ctx, sourceText)
	if err != nil {
		return nil, err
	}

	attempt, err := quiz.NewAttempt(uuid.NewString(), cmd.LearnerID, node.ID, questions)
	if err != nil {
		return nil, err
	}

	if err := h.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}

	return &GenerateQuizResult{Attempt: attempt}, nil
}
