package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STORE
// ══════════════════════════════════════════════════════════════════════════════

// Session is the data stored per auth token.
type Session struct {
	LearnerID string    `json:"learner_id"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps bearer-token sessions in Redis with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	cache  *Cache
	ttl    time.Duration
}

// NewSessionStore creates a session store.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = TTLSessionData
	}
	return &SessionStore{
		client: client,
		cache:  NewCache(client),
		ttl:    ttl,
	}
}

// Create issues a new opaque token for the learner.
func (s *SessionStore) Create(ctx context.Context, learnerID, tier string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}

	session := Session{
		LearnerID: learnerID,
		Tier:      tier,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.cache.Set(ctx, PrefixSession+token, session, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return token, nil
}

// Get resolves a token to its session and refreshes the TTL.
// Returns shared.ErrUnauthenticated for unknown or expired tokens.
func (s *SessionStore) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, shared.ErrUnauthenticated
	}

	var session Session
	err := s.cache.Get(ctx, PrefixSession+token, &session)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	// Sliding expiry: activity keeps the session alive.
	_ = s.client.Expire(ctx, PrefixSession+token, s.ttl).Err()

	return &session, nil
}

// Refresh rewrites the stored tier after it changes (payment upgrade),
// so the next request sees the new tier without re-login.
func (s *SessionStore) Refresh(ctx context.Context, token, tier string) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	session.Tier = tier
	return s.cache.Set(ctx, PrefixSession+token, session, s.ttl)
}

// Delete revokes a token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.cache.Delete(ctx, PrefixSession+token)
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
