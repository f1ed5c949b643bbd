package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
	"driverhire/pkg/sms"
)

// OTPService issues and verifies one-time codes. There is at most one
// active record per mobile number; sending again replaces it.
type OTPService interface {
	SendCode(ctx context.Context, mobile string, purpose models.OTPPurpose) (*OTPSendResult, error)
	// Verify consumes the active code for purpose. It succeeds at most once per record.
	Verify(ctx context.Context, mobile, code string, purpose models.OTPPurpose) error
	// VerifyCode verifies a booking-login code and mints a session.
	VerifyCode(ctx context.Context, mobile, code string) (*models.Session, error)
}

type OTPSendResult struct {
	Accepted     bool          `json:"accepted"`
	MaskedMobile string        `json:"masked_mobile"`
	Length       int           `json:"length"`
	ExpiresIn    time.Duration `json:"expires_in"`
	// DevCode is only populated outside production.
	DevCode string `json:"dev_code,omitempty"`
}

type OTPConfig struct {
	BookingLength int
	SignupLength  int
	Expiry        time.Duration
	MaxAttempts   int
	ExposeCode    bool
}

type otpService struct {
	store    interfaces.OTPStore
	users    interfaces.UserStore
	sessions SessionService
	sender   sms.SMSProvider
	config   OTPConfig
	clock    Clock
	logger   *logger.Logger

	// serializes read-modify-write of a record within this process
	mu sync.Mutex
}

func NewOTPService(
	store interfaces.OTPStore,
	users interfaces.UserStore,
	sessions SessionService,
	sender sms.SMSProvider,
	config OTPConfig,
	clock Clock,
	logger *logger.Logger,
) OTPService {
	if clock == nil {
		clock = SystemClock()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = utils.OTPMaxAttempts
	}
	if config.Expiry <= 0 {
		config.Expiry = utils.OTPExpiry
	}
	return &otpService{
		store:    store,
		users:    users,
		sessions: sessions,
		sender:   sender,
		config:   config,
		clock:    clock,
		logger:   logger,
	}
}

func (s *otpService) codeLength(purpose models.OTPPurpose) int {
	if purpose == models.OTPPurposeSignup {
		return s.config.SignupLength
	}
	return s.config.BookingLength
}

func (s *otpService) SendCode(ctx context.Context, mobile string, purpose models.OTPPurpose) (*OTPSendResult, error) {
	mobile = utils.NormalizeMobile(mobile)
	if !utils.IsValidMobile(mobile) {
		return &OTPSendResult{Accepted: false}, ErrInvalidMobile
	}
	if purpose == "" {
		purpose = models.OTPPurposeBooking
	}

	length := s.codeLength(purpose)
	now := s.clock.Now()
	record := &models.OTPRecord{
		MobileNumber: mobile,
		Purpose:      purpose,
		Code:         utils.GenerateOTP(length),
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.config.Expiry),
	}

	s.mu.Lock()
	err := s.store.Save(ctx, record)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to store otp: %w", err)
	}

	masked := utils.MaskPhone(mobile)
	if s.sender != nil {
		message := fmt.Sprintf("Your %s verification code is %s. It is valid for %d minutes.",
			utils.AppName, record.Code, int(s.config.Expiry.Minutes()))
		if _, err := s.sender.SendSMS(ctx, &sms.SMSRequest{
			To:      utils.ToE164(mobile),
			Message: message,
			Type:    "otp",
		}); err != nil {
			s.logger.WithError(err).WithField("mobile", masked).Error("Failed to send OTP SMS")
			return nil, fmt.Errorf("%w: %v", ErrOTPDelivery, err)
		}
	}

	s.logger.LogOTPEvent(masked, "sent", map[string]interface{}{
		"purpose": string(purpose),
		"length":  length,
	})

	result := &OTPSendResult{
		Accepted:     true,
		MaskedMobile: masked,
		Length:       length,
		ExpiresIn:    s.config.Expiry,
	}
	if s.config.ExposeCode {
		result.DevCode = record.Code
	}
	return result, nil
}

func (s *otpService) Verify(ctx context.Context, mobile, code string, purpose models.OTPPurpose) error {
	mobile = utils.NormalizeMobile(mobile)
	if !utils.IsValidMobile(mobile) {
		return ErrInvalidMobile
	}
	if purpose == "" {
		purpose = models.OTPPurposeBooking
	}
	masked := utils.MaskPhone(mobile)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.store.Get(ctx, mobile)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("failed to load otp: %w", err)
	}
	if record.Purpose != purpose {
		return ErrOTPNotFound
	}
	if record.Verified {
		return ErrOTPAlreadyUsed
	}

	if record.IsExpired(s.clock.Now()) {
		if err := s.store.Delete(ctx, mobile); err != nil {
			s.logger.WithError(err).WithField("mobile", masked).Warn("Failed to delete expired OTP")
		}
		s.logger.LogOTPEvent(masked, "expired", nil)
		return ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(record.Code)) != 1 {
		record.Attempts++
		if record.Attempts >= s.config.MaxAttempts {
			if err := s.store.Delete(ctx, mobile); err != nil {
				return fmt.Errorf("failed to delete exhausted otp: %w", err)
			}
			s.logger.LogOTPEvent(masked, "attempts_exhausted", map[string]interface{}{"attempts": record.Attempts})
			return ErrOTPAttemptsExhausted
		}
		if err := s.store.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to record otp attempt: %w", err)
		}
		s.logger.LogOTPEvent(masked, "mismatch", map[string]interface{}{"attempts": record.Attempts})
		return ErrOTPMismatch
	}

	// Kept as verified rather than deleted so a replay reports AlreadyUsed.
	record.Verified = true
	if err := s.store.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to mark otp verified: %w", err)
	}
	s.logger.LogOTPEvent(masked, "verified", map[string]interface{}{"purpose": string(purpose)})
	return nil
}

func (s *otpService) VerifyCode(ctx context.Context, mobile, code string) (*models.Session, error) {
	if err := s.Verify(ctx, mobile, code, models.OTPPurposeBooking); err != nil {
		return nil, err
	}

	user, err := findOrCreateUser(ctx, s.users, utils.NormalizeMobile(mobile), s.clock.Now())
	if err != nil {
		return nil, err
	}
	return s.sessions.Create(ctx, user)
}

// findOrCreateUser returns the verified user for mobile, creating one on first login.
func findOrCreateUser(ctx context.Context, users interfaces.UserStore, mobile string, now time.Time) (*models.User, error) {
	user, err := users.GetByMobile(ctx, mobile)
	switch {
	case err == nil:
		user.IsVerified = true
		user.LastLoginAt = &now
		user.UpdatedAt = now
		if err := users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		return user, nil
	case errors.Is(err, interfaces.ErrNotFound):
		user = &models.User{
			ID:           uuid.NewString(),
			MobileNumber: mobile,
			IsVerified:   true,
			LastLoginAt:  &now,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return user, nil
	default:
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
}
