package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

// SessionService mints, validates and revokes sessions.
type SessionService interface {
	Create(ctx context.Context, user *models.User) (*models.Session, error)
	Validate(ctx context.Context, token string) (*models.Session, error)
	Revoke(ctx context.Context, sessionID string) error
}

type sessionService struct {
	store  interfaces.SessionStore
	tokens TokenIssuer
	ttl    time.Duration
	clock  Clock
	logger *logger.Logger
}

func NewSessionService(store interfaces.SessionStore, tokens TokenIssuer, ttl time.Duration, clock Clock, logger *logger.Logger) SessionService {
	if clock == nil {
		clock = SystemClock()
	}
	return &sessionService{
		store:  store,
		tokens: tokens,
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
}

func (s *sessionService) Create(ctx context.Context, user *models.User) (*models.Session, error) {
	session := &models.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		MobileNumber: user.MobileNumber,
		Expiry:       s.clock.Now().Add(s.ttl),
	}

	token, err := s.tokens.Issue(session)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	session.IssuedToken = token

	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.WithUserID(user.ID).WithField("mobile", utils.MaskPhone(user.MobileNumber)).Info("Session created")
	return session, nil
}

// Validate accepts a token only while its session is still stored,
// so logout revokes it immediately.
func (s *sessionService) Validate(ctx context.Context, token string) (*models.Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.IsExpired(s.clock.Now()) {
		return nil, ErrSessionInvalid
	}
	return session, nil
}

func (s *sessionService) Revoke(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.logger.WithField("session_id", sessionID).Info("Session revoked")
	return nil
}
