// Package quiz contains the quiz attempt domain model: a small state
// machine around generation, submission, and oracle-based scoring.
package quiz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// MasteryThreshold is the normalized score at which an attempt counts
// as passed. A score exactly at the threshold passes.
const MasteryThreshold = 0.8

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// State is the lifecycle state of a quiz attempt.
// Transitions: created -> submitted -> scored. No other transition is legal,
// and scored is terminal.
type State string

const (
	StateCreated   State = "created"
	StateSubmitted State = "submitted"
	StateScored    State = "scored"
)

// IsValid checks that the state is one of the known values.
func (s State) IsValid() bool {
	switch s {
	case StateCreated, StateSubmitted, StateScored:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s State) String() string {
	return string(s)
}

// IsTerminal reports whether the state admits no further transitions.
func (s State) IsTerminal() bool {
	return s == StateScored
}

// Outcome is the pass/fail verdict of a scored attempt.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomePassed Outcome = "PASSED"
	OutcomeFailed Outcome = "FAILED"
)

// String returns the string representation.
func (o Outcome) String() string {
	return string(o)
}

// OutcomeForScore derives the verdict from a normalized score.
func OutcomeForScore(score shared.Score) Outcome {
	if score.Float64() >= MasteryThreshold {
		return OutcomePassed
	}
	return OutcomeFailed
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ATTEMPT
// ══════════════════════════════════════════════════════════════════════════════

// Attempt is a learner's run at a generated quiz.
type Attempt struct {
	// ID is the unique attempt identifier (UUID in string form).
	ID string

	// LearnerID is the owning learner. Only the owner may submit.
	LearnerID string

	// ContentNodeID is the content the quiz was generated from.
	ContentNodeID string

	// Questions is the oracle-generated question set, stored verbatim
	// so scoring later evaluates exactly what the learner saw.
	Questions json.RawMessage

	// Answers is the learner's submission. Nil until submitted.
	Answers json.RawMessage

	// State is the lifecycle state.
	State State

	// Score is the normalized oracle score. Zero until scored;
	// check State rather than the value.
	Score shared.Score

	// Outcome is the pass/fail verdict. Empty until scored.
	Outcome Outcome

	// Feedback is optional per-question oracle commentary.
	Feedback json.RawMessage

	CreatedAt   time.Time
	SubmittedAt *time.Time
	ScoredAt    *time.Time
}

// NewAttempt creates a fresh attempt holding a generated question set.
func NewAttempt(id, learnerID, contentNodeID string, questions json.RawMessage) (*Attempt, error) {
	if id == "" {
		return nil, shared.NewDomainError("quiz", "New", shared.ErrInvalidID, "attempt ID is required")
	}
	if learnerID == "" {
		return nil, shared.NewDomainError("quiz", "New", shared.ErrInvalidID, "learner ID is required")
	}
	if contentNodeID == "" {
		return nil, shared.NewDomainError("quiz", "New", shared.ErrInvalidID, "content node ID is required")
	}
	if len(questions) == 0 || string(questions) == "null" || string(questions) == "[]" {
		return nil, shared.ErrEmptyQuestionSet
	}

	return &Attempt{
		ID:            id,
		LearnerID:     learnerID,
		ContentNodeID: contentNodeID,
		Questions:     questions,
		State:         StateCreated,
		Outcome:       OutcomeNone,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// EnsureOwnedBy verifies the attempt belongs to the given learner.
func (a *Attempt) EnsureOwnedBy(learnerID string) error {
	if a.LearnerID != learnerID {
		return shared.ErrAttemptNotOwned
	}
	return nil
}

// Submit records the learner's answers.
// Returns shared.ErrAlreadyScored if the attempt has already been
// scored: repeat submissions never overwrite a final score.
func (a *Attempt) Submit(answers json.RawMessage) error {
	if a.State == StateScored {
		return shared.ErrAttemptScored
	}
	if len(answers) == 0 || string(answers) == "null" {
		return shared.ErrNoAnswersProvided
	}

	now := time.Now().UTC()
	a.Answers = answers
	a.State = StateSubmitted
	a.SubmittedAt = &now
	return nil
}

// RecordScore applies the oracle's verdict and finalizes the attempt.
// Legal only from the submitted state.
func (a *Attempt) RecordScore(score shared.Score, feedback json.RawMessage) error {
	if a.State == StateScored {
		return shared.ErrAttemptScored
	}
	if a.State != StateSubmitted {
		return shared.NewDomainError("quiz", "Score", shared.ErrStateTransition, "cannot score an attempt that has no submission")
	}
	if !score.IsValid() {
		return shared.NewDomainError("quiz", "Score", shared.ErrInvalidInput, "score must be between 0 and 1")
	}

	now := time.Now().UTC()
	a.Score = score
	a.Outcome = OutcomeForScore(score)
	a.Feedback = feedback
	a.State = StateScored
	a.ScoredAt = &now
	return nil
}

// Passed reports whether a scored attempt met the mastery threshold.
func (a *Attempt) Passed() bool {
	return a.State == StateScored && a.Outcome == OutcomePassed
}

// ══════════════════════════════════════════════════════════════════════════════
// INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Evaluation is the oracle's verdict on a submitted attempt.
type Evaluation struct {
	// Score is the normalized score in [0, 1].
	Score shared.Score

	// Feedback is optional per-question commentary, stored verbatim.
	Feedback json.RawMessage
}

// Oracle produces question sets and evaluates submissions.
// Implementations talk to the external personalization engine; the
// core treats the verdict as authoritative.
type Oracle interface {
	// GenerateQuestions builds a question set from gradable source text.
	GenerateQuestions(ctx context.Context, sourceText string) (json.RawMessage, error)

	// Evaluate scores a submission against its question set.
	Evaluate(ctx context.Context, questions, answers json.RawMessage) (*Evaluation, error)
}

// Repository persists quiz attempts.
type Repository interface {
	// Create inserts a new attempt in the created state.
	Create(ctx context.Context, a *Attempt) error

	// GetByID returns an attempt by ID.
	// Returns shared.ErrAttemptNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Attempt, error)

	// MarkSubmitted persists the answers and submission time of a
	// submitted attempt, guarded so an attempt that is already scored
	// in storage is never reopened. Returns shared.ErrAttemptScored
	// when the guard fires.
	MarkSubmitted(ctx context.Context, a *Attempt) error

	// FinalizeScore persists the submission and score in one write,
	// guarded so an attempt that is already scored in storage is left
	// untouched. Returns shared.ErrAttemptScored when the guard fires.
	FinalizeScore(ctx context.Context, a *Attempt) error

	// ListByLearner returns a learner's attempts, newest first.
	ListByLearner(ctx context.Context, learnerID string, p shared.Pagination) ([]*Attempt, error)
}
