package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/learnloop/learnloop-core/config"
	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type submitInteractionRequest struct {
	ContentNodeID string          `json:"content_node_id"`
	Type          string          `json:"type"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

type submitInteractionResponse struct {
	InteractionID string    `json:"interaction_id"`
	AcceptedAt    time.Time `json:"accepted_at"`
}

// handleSubmitInteraction accepts one interaction event.
// POST /api/v1/interactions
//
// The status code reflects the deployment's ingestion mode: 202 when
// the event was queued for a worker, 201 when it was written through.
func (s *Server) handleSubmitInteraction(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	var req submitInteractionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitInteraction.Handle(r.Context(), command.SubmitInteractionCommand{
		LearnerID:     sess.LearnerID,
		ContentNodeID: req.ContentNodeID,
		Type:          req.Type,
		Metadata:      req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if s.config.IngestMode == config.IngestQueued {
		status = http.StatusAccepted
	}

	writeJSON(w, status, submitInteractionResponse{
		InteractionID: result.InteractionID,
		AcceptedAt:    result.AcceptedAt,
	})
}
