// Package redis stores per-session dashboard state in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
)

// SessionStore implements domain.SessionStore. Each session's AppState is
// one JSON value under "<prefix>:session:<id>" with a sliding TTL.
type SessionStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
}

var _ domain.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a new Redis session store.
// keyPrefix namespaces all keys and prevents collisions with other applications.
func NewSessionStore(client *redis.Client, logger *zap.Logger, keyPrefix string) *SessionStore {
	return &SessionStore{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

// Load returns the state of a session, or domain.ErrSessionNotFound.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.AppState, error) {
	data, err := s.client.Get(ctx, s.buildKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		s.logger.Error("session load failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	var state domain.AppState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("discarding undecodable session state",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)

		return nil, domain.ErrSessionNotFound
	}

	s.logger.Debug("session loaded",
		zap.String("session_id", sessionID),
		zap.Int("records", len(state.Records)),
	)

	return &state, nil
}

// Save stores the state with the given TTL.
func (s *SessionStore) Save(ctx context.Context, state *domain.AppState, ttl time.Duration) error {
	if state.SessionID == "" {
		return domain.InvalidArgumentf("session id is required")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", state.SessionID, err)
	}

	if err := s.client.Set(ctx, s.buildKey(state.SessionID), data, ttl).Err(); err != nil {
		s.logger.Error("session save failed",
			zap.String("session_id", state.SessionID),
			zap.Int("bytes", len(data)),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)

		return fmt.Errorf("saving session %s: %w", state.SessionID, err)
	}

	s.logger.Debug("session saved",
		zap.String("session_id", state.SessionID),
		zap.Int("bytes", len(data)),
		zap.Duration("ttl", ttl),
	)

	return nil
}

// Delete removes the state of a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.buildKey(sessionID)).Err(); err != nil {
		s.logger.Error("session delete failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)

		return fmt.Errorf("deleting session %s: %w", sessionID, err)
	}

	return nil
}

// Ping verifies the Redis connection is alive.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) buildKey(sessionID string) string {
	return s.keyPrefix + ":session:" + sessionID
}
