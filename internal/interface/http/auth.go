package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/learnloop/learnloop-core/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// SessionStore resolves bearer tokens into sessions.
// Implemented by the Redis session store.
type SessionStore interface {
	// Get returns the session for a token.
	// Returns shared.ErrUnauthenticated for unknown or expired tokens.
	Get(ctx context.Context, token string) (*redis.Session, error)

	// Delete closes the session.
	Delete(ctx context.Context, token string) error
}

// sessionHandler is an HTTP handler that requires an authenticated session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *redis.Session)

// authenticated wraps a handler with session resolution. The learner
// identity always comes from the session, never from the request body.
func (s *Server) authenticated(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "Missing session token")
			return
		}

		sess, err := s.deps.Sessions.Get(r.Context(), token)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		next(w, r, sess)
	})
}

// bearerToken extracts the session token from the configured header.
func (s *Server) bearerToken(r *http.Request) string {
	raw := r.Header.Get(s.config.AuthTokenHeader)
	raw = strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(raw, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return raw
}
