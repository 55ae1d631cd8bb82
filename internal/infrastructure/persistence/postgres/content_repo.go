package postgres

import (
	"context"
	"fmt"

	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ContentRepository implements content.Repository for PostgreSQL.
// The catalog is read-only from the core's point of view.
type ContentRepository struct {
	conn *Connection
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(conn *Connection) *ContentRepository {
	return &ContentRepository{conn: conn}
}

// GetByID returns a content node by ID.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*content.Node, error) {
	query := `
		SELECT id, title, node_type, payload, transcript, file_ref, created_at
		FROM content_nodes
		WHERE id = $1
	`

	var n content.Node
	var nodeType string

	err := r.conn.QueryRow(ctx, query, id).Scan(
		&n.ID,
		&n.Title,
		&nodeType,
		&n.Payload,
		&n.Transcript,
		&n.FileRef,
		&n.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content node: %w", err)
	}

	n.Type = content.NodeType(nodeType)
	return &n, nil
}
