package services

import (
	"context"
	"errors"
	"fmt"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

// BookingService serves booking history and local status tracking.
type BookingService interface {
	History(ctx context.Context, mobile string, page *utils.PaginationParams) (*models.BookingHistory, error)
	Get(ctx context.Context, session *models.Session, reference string) (*models.BookingRecord, error)
	UpdateStatus(ctx context.Context, session *models.Session, reference string, target models.BookingStatus) (*models.BookingRecord, error)
}

type bookingService struct {
	api      BookingAPI
	bookings interfaces.BookingStore
	clock    Clock
	logger   *logger.Logger
}

func NewBookingService(api BookingAPI, bookings interfaces.BookingStore, clock Clock, logger *logger.Logger) BookingService {
	if clock == nil {
		clock = SystemClock()
	}
	return &bookingService{
		api:      api,
		bookings: bookings,
		clock:    clock,
		logger:   logger,
	}
}

func (s *bookingService) History(ctx context.Context, mobile string, page *utils.PaginationParams) (*models.BookingHistory, error) {
	mobile = utils.NormalizeMobile(mobile)
	if !utils.IsValidMobile(mobile) {
		return nil, ErrInvalidMobile
	}
	history, err := s.api.BookingHistory(ctx, mobile, page.GetSkip(), page.GetLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to load booking history: %w", err)
	}
	return history, nil
}

// Get returns ErrBookingNotFound for bookings the session does not own, so
// references of other customers cannot be discovered.
func (s *bookingService) Get(ctx context.Context, session *models.Session, reference string) (*models.BookingRecord, error) {
	record, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if !ownsBooking(session, record) {
		return nil, ErrBookingNotFound
	}
	return record, nil
}

func ownsBooking(session *models.Session, record *models.BookingRecord) bool {
	if session == nil {
		return false
	}
	if record.UserID != "" {
		return record.UserID == session.UserID
	}
	return record.MobileNumber != "" && record.MobileNumber == utils.NormalizeMobile(session.MobileNumber)
}

// UpdateStatus moves a booking forward. The store write is conditional on
// the status we read, so a concurrent update cannot be overwritten.
func (s *bookingService) UpdateStatus(ctx context.Context, session *models.Session, reference string, target models.BookingStatus) (*models.BookingRecord, error) {
	record, err := s.Get(ctx, session, reference)
	if err != nil {
		return nil, err
	}
	if !record.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, record.Status, target)
	}

	if err := s.bookings.UpdateStatus(ctx, reference, record.Status, target); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidStatusTransition)
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	s.logger.LogBookingEvent(reference, "status_changed", map[string]interface{}{
		"from": string(record.Status),
		"to":   string(target),
	})
	record.Status = target
	record.UpdatedAt = s.clock.Now()
	return record, nil
}
