package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
)

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// SessionService loads and stores per-session dashboard state.
type SessionService struct {
	store  domain.SessionStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(store domain.SessionStore, ttl time.Duration, logger *zap.Logger) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// NewID returns a fresh session id.
func (s *SessionService) NewID() string {
	return uuid.NewString()
}

// Ensure returns the state of sessionID, or a fresh empty state when the
// session is unknown or expired. An empty id gets a new uuid.
func (s *SessionService) Ensure(ctx context.Context, sessionID string) (*domain.AppState, error) {
	if sessionID == "" {
		return domain.NewAppState(s.NewID()), nil
	}

	state, err := s.store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		s.logger.Debug("starting new session state", zap.String("session_id", sessionID))
		return domain.NewAppState(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
	}

	return state, nil
}

// Save stores state and refreshes its TTL.
func (s *SessionService) Save(ctx context.Context, state *domain.AppState) error {
	state.Touch()
	if err := s.store.Save(ctx, state, s.ttl); err != nil {
		return fmt.Errorf("saving session %s: %w", state.SessionID, err)
	}
	return nil
}

// Reset drops the state of sessionID.
func (s *SessionService) Reset(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("resetting session %s: %w", sessionID, err)
	}
	return nil
}
