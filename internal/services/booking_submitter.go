package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"driverhire/internal/gateway"
	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

const legacyTimeLayout = "2006-01-02 15:04:05"

// BookingAPI is the part of the legacy API that creates and lists bookings.
type BookingAPI interface {
	InsertBooking(ctx context.Context, payload *gateway.BookingPayload) (*gateway.BookingConfirmation, error)
	BookingHistory(ctx context.Context, mobile string, skip, total int) (*models.BookingHistory, error)
}

type SubmitResult struct {
	Success          bool   `json:"success"`
	BookingReference string `json:"bookingReference,omitempty"`
	PaymentMode      string `json:"paymentMode,omitempty"`
	Message          string `json:"message,omitempty"`
}

// BookingSubmitter places the final booking. Submission is not retried:
// the legacy API offers no idempotency key, so a timed-out call may
// already have created the booking.
type BookingSubmitter interface {
	// Submit returns models.ValidationErrors when a local precondition
	// fails; the legacy API is not called in that case. Remote failures
	// are reported through an unsuccessful SubmitResult.
	Submit(ctx context.Context, draft *models.BookingDraft, fare *models.FareBreakdown, session *models.Session) (*SubmitResult, error)
}

type bookingSubmitter struct {
	api      BookingAPI
	bookings interfaces.BookingStore
	clock    Clock
	location *time.Location
	logger   *logger.Logger
}

// NewBookingSubmitter sends times to the legacy API as wall clock in
// location; nil keeps each timestamp's own zone.
func NewBookingSubmitter(api BookingAPI, bookings interfaces.BookingStore, clock Clock, location *time.Location, logger *logger.Logger) BookingSubmitter {
	if clock == nil {
		clock = SystemClock()
	}
	return &bookingSubmitter{
		api:      api,
		bookings: bookings,
		clock:    clock,
		location: location,
		logger:   logger,
	}
}

func (s *bookingSubmitter) Submit(ctx context.Context, draft *models.BookingDraft, fare *models.FareBreakdown, session *models.Session) (*SubmitResult, error) {
	phone := ResolvePhone(draft, session)

	verrs := models.ValidationErrors{}
	if phone == "" {
		verrs.Add(models.FieldPhone, "Mobile number is required to book.")
	}
	if draft.VehicleSize == "" {
		verrs.Add(models.FieldVehicleSize, "Select a vehicle type.")
	}
	if fare == nil || fare.Total <= 0 {
		verrs.Add(models.FieldFare, "Fare is not available yet.")
	}
	if err := verrs.OrNil(); err != nil {
		return nil, err
	}

	payload := BuildBookingPayload(draft, fare, phone, s.clock.Now(), s.location)
	confirmation, err := s.api.InsertBooking(ctx, payload)
	if err != nil {
		return s.failure(phone, err), nil
	}

	s.logger.LogBookingEvent(confirmation.Reference, "created", map[string]interface{}{
		"trip_type":    string(draft.TripType),
		"vehicle_size": string(draft.VehicleSize),
		"amount":       fare.Total,
		"mobile":       utils.MaskPhone(phone),
	})
	s.mirror(ctx, draft, fare, session, phone, confirmation)

	return &SubmitResult{
		Success:          true,
		BookingReference: confirmation.Reference,
		PaymentMode:      confirmation.PaymentType,
	}, nil
}

func (s *bookingSubmitter) failure(phone string, err error) *SubmitResult {
	message := utils.ErrBookingFailed
	var rejection *gateway.RemoteRejection
	if errors.As(err, &rejection) && rejection.Message != "" {
		message = rejection.Message
	}
	s.logger.WithError(err).WithField("mobile", utils.MaskPhone(phone)).Warn("Booking submission failed")
	return &SubmitResult{Success: false, Message: message}
}

// mirror records the confirmed booking locally. A failure here does not
// undo the remote booking, so it is only logged.
func (s *bookingSubmitter) mirror(ctx context.Context, draft *models.BookingDraft, fare *models.FareBreakdown, session *models.Session, phone string, confirmation *gateway.BookingConfirmation) {
	if s.bookings == nil {
		return
	}
	now := s.clock.Now()
	record := &models.BookingRecord{
		Reference:        confirmation.Reference,
		Status:           models.BookingStatusPending,
		TripType:         draft.TripType,
		PickupLocation:   draft.PickupLocation,
		DropLocation:     draft.DropLocation,
		PickupTime:       pickupTime(draft, now),
		ReturnTime:       draft.ReturnTime,
		CarType:          draft.CarType,
		VehicleSize:      draft.VehicleSize,
		PackageHours:     draft.EstimatedUsageHours,
		DamageProtection: draft.DamageProtection,
		MobileNumber:     phone,
		PaymentMode:      confirmation.PaymentType,
		FinalAmount:      fare.Total,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if session != nil {
		record.UserID = session.UserID
	}
	if err := s.bookings.Create(ctx, record); err != nil {
		s.logger.WithError(err).WithField("booking_reference", confirmation.Reference).Error("Failed to store booking record")
	}
}

// ResolvePhone prefers the draft's number and falls back to the session's.
func ResolvePhone(draft *models.BookingDraft, session *models.Session) string {
	if phone := utils.NormalizeMobile(strings.TrimSpace(draft.PhoneNumber)); phone != "" {
		return phone
	}
	if session != nil {
		return utils.NormalizeMobile(session.MobileNumber)
	}
	return ""
}

func BuildBookingPayload(draft *models.BookingDraft, fare *models.FareBreakdown, phone string, now time.Time, loc *time.Location) *gateway.BookingPayload {
	payload := &gateway.BookingPayload{
		TripType:       string(draft.TripType),
		ReqType:        PickupTypeFor(draft.TripType),
		PickupLocation: draft.PickupLocation.Label(),
		PickupLatLong:  draft.PickupLocation.LatLong(),
		DropLocation:   draft.DropLocation.Label(),
		DropLatLong:    draft.DropLocation.LatLong(),
		PickupTime:     inZone(pickupTime(draft, now), loc).Format(legacyTimeLayout),
		Price:          fare.Total,
		CarType:        string(draft.CarType),
		PackageHours:   draft.EstimatedUsageHours,
		MobileNumber:   phone,
	}
	if draft.ReturnTime != nil {
		payload.ReturnTime = inZone(*draft.ReturnTime, loc).Format(legacyTimeLayout)
	}
	return payload
}

func pickupTime(draft *models.BookingDraft, now time.Time) time.Time {
	if draft.ScheduledTime != nil {
		return *draft.ScheduledTime
	}
	return now
}
