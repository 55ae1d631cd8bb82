package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// InteractionRepository implements interaction.Repository for PostgreSQL.
type InteractionRepository struct {
	conn *Connection
}

// NewInteractionRepository creates a new InteractionRepository.
func NewInteractionRepository(conn *Connection) *InteractionRepository {
	return &InteractionRepository{conn: conn}
}

// Store inserts an interaction. ON CONFLICT DO NOTHING on the primary
// key absorbs queue redeliveries: the first delivery wins and later
// copies of the same event ID report shared.ErrAlreadyProcessed so the
// consumer can count them. An insert referencing a learner or content
// node that no longer exists reports shared.ErrInvalidEntity; retrying
// cannot repair that.
func (r *InteractionRepository) Store(ctx context.Context, i *interaction.Interaction) error {
	query := `
		INSERT INTO interactions (
			id, learner_id, content_node_id, interaction_type, metadata, accepted_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query,
		i.ID,
		i.LearnerID,
		i.ContentNodeID,
		i.Type.String(),
		i.Metadata,
		i.AcceptedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("interaction", "Store", shared.ErrInvalidEntity,
				"interaction references an unknown learner or content node", err)
		}
		return fmt.Errorf("failed to store interaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAlreadyProcessed
	}

	return nil
}

// CountByLearner returns how many interactions a learner has recorded.
func (r *InteractionRepository) CountByLearner(ctx context.Context, learnerID string) (int64, error) {
	var count int64
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM interactions WHERE learner_id = $1`,
		learnerID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return count, nil
}

// CountByLearnerSince returns interactions recorded in [since, until].
// Used by the dashboard for daily and weekly activity windows.
func (r *InteractionRepository) CountByLearnerSince(ctx context.Context, learnerID string, since, until time.Time) (int64, error) {
	var count int64
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM interactions
		 WHERE learner_id = $1 AND accepted_at BETWEEN $2 AND $3`,
		learnerID, since, until,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count interactions in window: %w", err)
	}
	return count, nil
}

// RecentByLearner returns the learner's newest interactions joined
// with node titles. Deleted nodes leave the title empty rather than
// dropping the row.
func (r *InteractionRepository) RecentByLearner(ctx context.Context, learnerID string, limit int) ([]interaction.ActivityEntry, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT i.id, i.content_node_id, COALESCE(c.title, ''), i.interaction_type, i.accepted_at
		 FROM interactions i
		 LEFT JOIN content_nodes c ON c.id = i.content_node_id
		 WHERE i.learner_id = $1
		 ORDER BY i.accepted_at DESC
		 LIMIT $2`,
		learnerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent interactions: %w", err)
	}
	defer rows.Close()

	var entries []interaction.ActivityEntry
	for rows.Next() {
		var e interaction.ActivityEntry
		var kind string
		if err := rows.Scan(&e.InteractionID, &e.ContentNodeID, &e.NodeTitle, &kind, &e.AcceptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent interaction: %w", err)
		}
		e.Type = interaction.Type(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ActiveDayStreak returns how many consecutive UTC days, ending today,
// the learner has at least one interaction.
func (r *InteractionRepository) ActiveDayStreak(ctx context.Context, learnerID string) (int, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT DISTINCT date_trunc('day', accepted_at AT TIME ZONE 'UTC') AS day
		 FROM interactions
		 WHERE learner_id = $1
		 ORDER BY day DESC
		 LIMIT 60`,
		learnerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to query active days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return 0, fmt.Errorf("failed to scan active day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	streak := 0
	expected := timeutil.StartOfDay(timeutil.Now())
	for _, day := range days {
		if !day.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak, nil
}
