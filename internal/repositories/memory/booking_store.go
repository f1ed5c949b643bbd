package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
)

type bookingStore struct {
	mu       sync.RWMutex
	bookings map[string]models.BookingRecord
}

func NewBookingStore() interfaces.BookingStore {
	return &bookingStore{bookings: make(map[string]models.BookingRecord)}
}

func (s *bookingStore) Create(ctx context.Context, booking *models.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[booking.Reference]; exists {
		return fmt.Errorf("booking %s already exists", booking.Reference)
	}
	s.bookings[booking.Reference] = *booking
	return nil
}

func (s *bookingStore) GetByReference(ctx context.Context, reference string) (*models.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[reference]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &booking, nil
}

func (s *bookingStore) ListByMobile(ctx context.Context, mobileNumber string, skip, limit int) ([]*models.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.BookingRecord
	for _, b := range s.bookings {
		if b.MobileNumber == mobileNumber {
			booking := b
			matched = append(matched, &booking)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if skip >= len(matched) {
		return []*models.BookingRecord{}, nil
	}
	end := len(matched)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return matched[skip:end], nil
}

func (s *bookingStore) UpdateStatus(ctx context.Context, reference string, from, to models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	booking, ok := s.bookings[reference]
	if !ok || booking.Status != from {
		return interfaces.ErrNotFound
	}
	booking.Status = to
	booking.UpdatedAt = time.Now()
	s.bookings[reference] = booking
	return nil
}
