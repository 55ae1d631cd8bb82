package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/learnloop/learnloop-core/internal/domain/report"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPORT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ReportRepository implements report.Repository for PostgreSQL.
// Rows always hold the full, unredacted report body.
type ReportRepository struct {
	conn *Connection
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(conn *Connection) *ReportRepository {
	return &ReportRepository{conn: conn}
}

// Create inserts a generated report.
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	dataJSON, err := json.Marshal(rep.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal report data: %w", err)
	}

	query := `
		INSERT INTO learner_reports (id, learner_id, data, generated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err = r.conn.Exec(ctx, query, rep.ID, rep.LearnerID, dataJSON, rep.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetByID returns a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*report.Report, error) {
	query := `
		SELECT id, learner_id, data, generated_at
		FROM learner_reports
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	return scanReport(row)
}

// ListByLearner returns a learner's reports, newest first.
func (r *ReportRepository) ListByLearner(ctx context.Context, learnerID string, p shared.Pagination) ([]*report.Report, error) {
	query := `
		SELECT id, learner_id, data, generated_at
		FROM learner_reports
		WHERE learner_id = $1
		ORDER BY generated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.conn.Query(ctx, query, learnerID, p.Limit(), p.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}

	return reports, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scan Helpers
// ─────────────────────────────────────────────────────────────────────────────

func scanReport(row pgx.Row) (*report.Report, error) {
	var rep report.Report
	var dataJSON []byte

	err := row.Scan(&rep.ID, &rep.LearnerID, &dataJSON, &rep.GeneratedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	if err := json.Unmarshal(dataJSON, &rep.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report data: %w", err)
	}

	return &rep, nil
}
