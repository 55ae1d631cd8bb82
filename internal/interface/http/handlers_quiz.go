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
// QUIZ HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type quizAttemptResponse struct {
	AttemptID     string          `json:"attempt_id"`
	ContentNodeID string          `json:"content_node_id"`
	Questions     json.RawMessage `json:"questions"`
	State         string          `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}

// handleGenerateQuiz builds a quiz attempt from a content node.
// POST /api/v1/content/{id}/quiz
func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	result, err := s.deps.GenerateQuiz.Handle(r.Context(), command.GenerateQuizCommand{
		LearnerID:     sess.LearnerID,
		ContentNodeID: r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a := result.Attempt
	writeJSON(w, http.StatusCreated, quizAttemptResponse{
		AttemptID:     a.ID,
		ContentNodeID: a.ContentNodeID,
		Questions:     a.Questions,
		State:         a.State.String(),
		CreatedAt:     a.CreatedAt,
	})
}

type submitQuizRequest struct {
	Answers json.RawMessage `json:"answers"`
}

type quizScoreResponse struct {
	AttemptID string  `json:"attempt_id"`
	Score     float64 `json:"score"`
	Outcome   string  `json:"outcome"`
	Passed    bool    `json:"passed"`

	// Feedback is present only when per-question feedback is enabled.
	Feedback json.RawMessage `json:"feedback,omitempty"`
}

// handleSubmitQuiz submits answers and returns the verdict.
// POST /api/v1/quiz/{id}/submit
func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	var req submitQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.SubmitQuiz.Handle(r.Context(), command.SubmitQuizCommand{
		AttemptID: r.PathValue("id"),
		LearnerID: sess.LearnerID,
		Answers:   req.Answers,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a := result.Attempt
	resp := quizScoreResponse{
		AttemptID: a.ID,
		Score:     a.Score.Float64(),
		Outcome:   a.Outcome.String(),
		Passed:    a.Passed(),
	}

	if s.deps.Flags == nil || s.deps.Flags.IsEnabled(config.FeatureQuizFeedback, &config.FeatureContext{
		LearnerID: sess.LearnerID,
		Tier:      sess.Tier,
	}) {
		resp.Feedback = a.Feedback
	}

	writeJSON(w, http.StatusOK, resp)
}
