package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository, learner.CreditLedger,
// and learner.PaymentCredit for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new learner.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (
			id, email, password_hash, display_name, tier, hint_credits,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		l.ID,
		l.Email.String(),
		l.PasswordHash,
		l.DisplayName,
		l.Tier.String(),
		l.HintCredits.Int(),
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}

	return nil
}

// GetByID returns a learner by internal ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id string) (*learner.Learner, error) {
	query := `
		SELECT id, email, password_hash, display_name, tier, hint_credits,
		       created_at, updated_at
		FROM learners
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return scanLearner(row)
}

// GetByEmail returns a learner by email.
func (r *LearnerRepository) GetByEmail(ctx context.Context, email string) (*learner.Learner, error) {
	query := `
		SELECT id, email, password_hash, display_name, tier, hint_credits,
		       created_at, updated_at
		FROM learners
		WHERE email = $1
	`

	row := r.conn.QueryRow(ctx, query, email)
	return scanLearner(row)
}

// GetProfile returns the derived learning profile for a learner.
func (r *LearnerRepository) GetProfile(ctx context.Context, learnerID string) (*learner.Profile, error) {
	query := `
		SELECT learner_id, engagement_score, competence_map, updated_at
		FROM learner_profiles
		WHERE learner_id = $1
	`

	var p learner.Profile
	var competenceJSON []byte

	err := r.conn.QueryRow(ctx, query, learnerID).Scan(
		&p.LearnerID,
		&p.EngagementScore,
		&competenceJSON,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("learner", "GetProfile", shared.ErrNotFound, "no profile generated yet")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if err := json.Unmarshal(competenceJSON, &p.CompetenceMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal competence map: %w", err)
	}

	return &p, nil
}

// UpsertProfile writes the derived profile produced alongside a report.
func (r *LearnerRepository) UpsertProfile(ctx context.Context, p *learner.Profile) error {
	competenceJSON, err := json.Marshal(p.CompetenceMap)
	if err != nil {
		return fmt.Errorf("failed to marshal competence map: %w", err)
	}

	query := `
		INSERT INTO learner_profiles (learner_id, engagement_score, competence_map, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (learner_id) DO UPDATE
		SET engagement_score = EXCLUDED.engagement_score,
		    competence_map = EXCLUDED.competence_map,
		    updated_at = EXCLUDED.updated_at
	`

	_, err = r.conn.Exec(ctx, query, p.LearnerID, p.EngagementScore, competenceJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Credit Ledger
// ─────────────────────────────────────────────────────────────────────────────

// DebitHintCredit spends one credit and reveals the hint, atomically.
//
// The learner row is locked with FOR UPDATE so concurrent debits for
// the same learner serialize; each one re-reads the balance after
// acquiring the lock. The hint lookup happens inside the same
// transaction, so a missing hint rolls the decrement back.
func (r *LearnerRepository) DebitHintCredit(ctx context.Context, learnerID, contentNodeID string) (*learner.DebitResult, error) {
	var result learner.DebitResult

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		var credits int
		err := tx.QueryRow(ctx,
			`SELECT hint_credits FROM learners WHERE id = $1 FOR UPDATE`,
			learnerID,
		).Scan(&credits)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrLearnerNotFound
			}
			return fmt.Errorf("failed to lock learner row: %w", err)
		}

		if credits <= 0 {
			return shared.ErrNoHintCredits
		}

		var nodeType string
		var payload []byte
		err = tx.QueryRow(ctx,
			`SELECT node_type, payload FROM content_nodes WHERE id = $1`,
			contentNodeID,
		).Scan(&nodeType, &payload)
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrContentNotFound
			}
			return fmt.Errorf("failed to load content node: %w", err)
		}

		if nodeType != "QUIZ" {
			return shared.ErrHintNotAvailable
		}

		var body struct {
			Hint string `json:"hint"`
		}
		if err := json.Unmarshal(payload, &body); err != nil || body.Hint == "" {
			return shared.ErrHintNotAvailable
		}

		_, err = tx.Exec(ctx,
			`UPDATE learners SET hint_credits = hint_credits - 1, updated_at = $2 WHERE id = $1`,
			learnerID, time.Now().UTC(),
		)
		if err != nil {
			if IsCheckViolation(err) {
				return shared.ErrNoHintCredits
			}
			return fmt.Errorf("failed to debit credits: %w", err)
		}

		result.Hint = body.Hint
		result.RemainingCredits = learner.HintCredits(credits - 1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Payment Crediting
// ─────────────────────────────────────────────────────────────────────────────

// ApplyPaymentCredit upgrades a learner and grants credits, keyed by
// the payment provider's event ID.
//
// The dedupe insert and the credit grant commit together: a replayed
// event ID collides on payment_events.id and the whole transaction is
// skipped, so the learner is never credited twice.
func (r *LearnerRepository) ApplyPaymentCredit(ctx context.Context, paymentEventID, learnerID string) (bool, error) {
	applied := false

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO payment_events (id, learner_id) VALUES ($1, $2)
			 ON CONFLICT (id) DO NOTHING`,
			paymentEventID, learnerID,
		)
		if err != nil {
			return fmt.Errorf("failed to record payment event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// Replay: already processed, nothing to do.
			return nil
		}

		result, err := tx.Exec(ctx,
			`UPDATE learners
			 SET tier = $2, hint_credits = hint_credits + $3, updated_at = $4
			 WHERE id = $1`,
			learnerID, learner.TierPremium.String(), learner.UpgradeHintCredits, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to apply payment credit: %w", err)
		}
		if result.RowsAffected() == 0 {
			return shared.ErrLearnerNotFound
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanLearner(row pgx.Row) (*learner.Learner, error) {
	var l learner.Learner
	var email, tier string
	var credits int

	err := row.Scan(
		&l.ID,
		&email,
		&l.PasswordHash,
		&l.DisplayName,
		&tier,
		&credits,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to scan learner: %w", err)
	}

	l.Email = shared.Email(email)
	l.Tier = learner.Tier(tier)
	l.HintCredits = learner.HintCredits(credits)

	return &l, nil
}
