package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUIZ ATTEMPT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AttemptRepository implements quiz.Repository for PostgreSQL.
type AttemptRepository struct {
	conn *Connection
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(conn *Connection) *AttemptRepository {
	return &AttemptRepository{conn: conn}
}

// Create inserts a new attempt in the created state.
func (r *AttemptRepository) Create(ctx context.Context, a *quiz.Attempt) error {
	query := `
		INSERT INTO quiz_attempts (
			id, learner_id, content_node_id, questions, state, outcome, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		a.ID,
		a.LearnerID,
		a.ContentNodeID,
		a.Questions,
		a.State.String(),
		a.Outcome.String(),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quiz attempt: %w", err)
	}

	return nil
}

// GetByID returns an attempt by ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*quiz.Attempt, error) {
	query := `
		SELECT id, learner_id, content_node_id, questions, answers, state,
		       score, outcome, feedback, created_at, submitted_at, scored_at
		FROM quiz_attempts
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return scanAttempt(row)
}

// MarkSubmitted persists the answers and submission time. The guard
// mirrors FinalizeScore: a scored attempt is never reopened.
func (r *AttemptRepository) MarkSubmitted(ctx context.Context, a *quiz.Attempt) error {
	query := `
		UPDATE quiz_attempts
		SET answers = $2, state = $3, submitted_at = $4
		WHERE id = $1 AND state <> 'scored'
	`

	result, err := r.conn.Exec(ctx, query,
		a.ID,
		a.Answers,
		a.State.String(),
		a.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark quiz attempt submitted: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM quiz_attempts WHERE id = $1)`, a.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check attempt existence: %w", err)
		}
		if !exists {
			return shared.ErrAttemptNotFound
		}
		return shared.ErrAttemptScored
	}

	return nil
}

// FinalizeScore persists the submission and score in one write.
//
// The state <> 'scored' guard makes the update a no-op when another
// request already finalized the attempt, so the first score always
// stands regardless of interleaving.
func (r *AttemptRepository) FinalizeScore(ctx context.Context, a *quiz.Attempt) error {
	query := `
		UPDATE quiz_attempts
		SET answers = $2, state = $3, score = $4, outcome = $5, feedback = $6,
		    submitted_at = $7, scored_at = $8
		WHERE id = $1 AND state <> 'scored'
	`

	result, err := r.conn.Exec(ctx, query,
		a.ID,
		a.Answers,
		a.State.String(),
		a.Score.Float64(),
		a.Outcome.String(),
		a.Feedback,
		a.SubmittedAt,
		a.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize quiz attempt: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the attempt vanished or it is already scored;
		// distinguish so the caller can map to the right error.
		var exists bool
		if err := r.conn.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM quiz_attempts WHERE id = $1)`, a.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check attempt existence: %w", err)
		}
		if !exists {
			return shared.ErrAttemptNotFound
		}
		return shared.ErrAttemptScored
	}

	return nil
}

// ListByLearner returns a learner's attempts, newest first.
func (r *AttemptRepository) ListByLearner(ctx context.Context, learnerID string, p shared.Pagination) ([]*quiz.Attempt, error) {
	query := `
		SELECT id, learner_id, content_node_id, questions, answers, state,
		       score, outcome, feedback, created_at, submitted_at, scored_at
		FROM quiz_attempts
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, learnerID, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*quiz.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanAttempt(row pgx.Row) (*quiz.Attempt, error) {
	var a quiz.Attempt
	var state, outcome string
	var score *float64

	err := row.Scan(
		&a.ID,
		&a.LearnerID,
		&a.ContentNodeID,
		&a.Questions,
		&a.Answers,
		&state,
		&score,
		&outcome,
		&a.Feedback,
		&a.CreatedAt,
		&a.SubmittedAt,
		&a.ScoredAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to scan quiz attempt: %w", err)
	}

	a.State = quiz.State(state)
	a.Outcome = quiz.Outcome(outcome)
	if score != nil {
		a.Score = shared.Score(*score)
	}

	return &a, nil
}
