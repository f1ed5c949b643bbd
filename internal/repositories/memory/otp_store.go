package memory

import (
	"context"
	"sync"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
)

type otpStore struct {
	mu      sync.Mutex
	records map[string]models.OTPRecord
}

func NewOTPStore() interfaces.OTPStore {
	return &otpStore{records: make(map[string]models.OTPRecord)}
}

func (s *otpStore) Get(ctx context.Context, mobileNumber string) (*models.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[mobileNumber]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &record, nil
}

func (s *otpStore) Save(ctx context.Context, record *models.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.MobileNumber] = *record
	return nil
}

func (s *otpStore) Delete(ctx context.Context, mobileNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, mobileNumber)
	return nil
}
