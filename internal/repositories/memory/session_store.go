package memory

import (
	"context"
	"sync"
	"time"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
)

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewSessionStore() interfaces.SessionStore {
	return &sessionStore{sessions: make(map[string]models.Session), now: time.Now}
}

func (s *sessionStore) Save(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = *session
	return nil
}

func (s *sessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if session.IsExpired(s.now()) {
		s.Delete(ctx, sessionID)
		return nil, interfaces.ErrNotFound
	}
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
