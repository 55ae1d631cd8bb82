package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/internal/application/query"
	"github.com/learnloop/learnloop-core/internal/domain/content"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type contentNodeResponse struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	Type       string              `json:"type"`
	Payload    json.RawMessage     `json:"payload,omitempty"`
	Transcript string              `json:"transcript,omitempty"`
	Links      *content.VideoLinks `json:"links,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

func contentNodeResponseFor(n *content.Node, links *content.VideoLinks) contentNodeResponse {
	return contentNodeResponse{
		ID:         n.ID,
		Title:      n.Title,
		Type:       n.Type.String(),
		Payload:    n.Payload,
		Transcript: n.Transcript,
		Links:      links,
		CreatedAt:  n.CreatedAt,
	}
}

// handleGetContent serves one content node, links resolved for videos.
// GET /api/v1/content/{id}
func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	result, err := s.deps.GetContent.Handle(r.Context(), query.GetContentQuery{
		LearnerID:     sess.LearnerID,
		ContentNodeID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contentNodeResponseFor(result.Node, result.Links))
}

type nextContentResponse struct {
	Node   contentNodeResponse `json:"node"`
	Reason string              `json:"reason,omitempty"`
}

// handleNextContent returns the engine's validated next-content pick.
// GET /api/v1/content/next
func (s *Server) handleNextContent(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	result, err := s.deps.NextContent.Handle(r.Context(), query.NextContentQuery{
		LearnerID: sess.LearnerID,
		Tier:      sess.Tier,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nextContentResponse{
		Node:   contentNodeResponseFor(result.Node, nil),
		Reason: result.Reason,
	})
}

type useHintResponse struct {
	Hint             string `json:"hint"`
	RemainingCredits int    `json:"remaining_credits"`
}

// handleUseHint spends one hint credit and reveals the node's hint.
// POST /api/v1/content/{id}/hint
func (s *Server) handleUseHint(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	result, err := s.deps.UseHint.Handle(r.Context(), command.UseHintCommand{
		LearnerID:     sess.LearnerID,
		ContentNodeID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, useHintResponse{
		Hint:             result.Hint,
		RemainingCredits: result.RemainingCredits,
	})
}
