package redis

import (
	"context"
	"errors"
	"time"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/cache"
)

type sessionStore struct {
	cache Cache
	now   func() time.Time
}

func NewSessionStore(c Cache) interfaces.SessionStore {
	return &sessionStore{cache: c, now: time.Now}
}

func (s *sessionStore) Save(ctx context.Context, session *models.Session) error {
	ttl := session.Expiry.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, utils.CacheSessionPrefix+session.ID, session, ttl)
}

func (s *sessionStore) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := s.cache.Get(ctx, utils.CacheSessionPrefix+sessionID, &session); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, interfaces.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *sessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, utils.CacheSessionPrefix+sessionID)
}
