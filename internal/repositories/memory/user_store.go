package memory

import (
	"context"
	"fmt"
	"sync"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
)

type userStore struct {
	mu       sync.RWMutex
	byID     map[string]models.User
	byMobile map[string]string
}

func NewUserStore() interfaces.UserStore {
	return &userStore{
		byID:     make(map[string]models.User),
		byMobile: make(map[string]string),
	}
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byMobile[user.MobileNumber]; exists {
		return fmt.Errorf("user with mobile %s already exists", user.MobileNumber)
	}
	s.byID[user.ID] = *user
	s.byMobile[user.MobileNumber] = user.ID
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &user, nil
}

func (s *userStore) GetByMobile(ctx context.Context, mobileNumber string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byMobile[mobileNumber]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	user := s.byID[id]
	return &user, nil
}

func (s *userStore) Update(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[user.ID]; !ok {
		return interfaces.ErrNotFound
	}
	s.byID[user.ID] = *user
	return nil
}
