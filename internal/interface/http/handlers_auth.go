package http

import (
	"net/http"

	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/internal/domain/learner"
	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/redis"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	LearnerID   string `json:"learner_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Tier        string `json:"tier"`
	HintCredits int    `json:"hint_credits"`
	Token       string `json:"token"`
}

func sessionResponseFor(l *learner.Learner, token string) sessionResponse {
	return sessionResponse{
		LearnerID:   l.ID,
		Email:       l.Email.String(),
		DisplayName: l.DisplayName,
		Tier:        l.Tier.String(),
		HintCredits: l.HintCredits.Int(),
		Token:       token,
	}
}

// handleRegister creates a learner account and opens a session.
// POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.RegisterLearner.Handle(r.Context(), command.RegisterLearnerCommand{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponseFor(result.Learner, result.Token))
}

// handleLogin verifies credentials and opens a session.
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.deps.Login.Handle(r.Context(), command.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponseFor(result.Learner, result.Token))
}

// handleLogout closes the current session.
// POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *redis.Session) {
	token := s.bearerToken(r)
	if err := s.deps.Sessions.Delete(r.Context(), token); err != nil {
		s.logger.Warn("session delete failed",
			logger.LearnerID(sess.LearnerID),
			logger.Err(err),
		)
	}
	// The token is gone either way once its TTL runs out.
	writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}
