package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"driverhire/internal/gateway"
	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

// Authenticator is what the booking wizard needs to log a customer in.
type Authenticator interface {
	SendCode(ctx context.Context, mobile string) (*OTPSendResult, error)
	VerifyCode(ctx context.Context, mobile, code string) (*models.Session, error)
}

type localAuthenticator struct {
	otp OTPService
}

// NewLocalAuthenticator uses the in-house OTP service with booking-length codes.
func NewLocalAuthenticator(otp OTPService) Authenticator {
	return &localAuthenticator{otp: otp}
}

func (a *localAuthenticator) SendCode(ctx context.Context, mobile string) (*OTPSendResult, error) {
	return a.otp.SendCode(ctx, mobile, models.OTPPurposeBooking)
}

func (a *localAuthenticator) VerifyCode(ctx context.Context, mobile, code string) (*models.Session, error) {
	return a.otp.VerifyCode(ctx, mobile, code)
}

// OTPAPI is the legacy API's own OTP pair.
type OTPAPI interface {
	SendOTP(ctx context.Context, mobile string) (*gateway.Result, error)
	VerifyOTP(ctx context.Context, mobile, otp string) (*gateway.Result, error)
}

type remoteAuthenticator struct {
	api      OTPAPI
	users    interfaces.UserStore
	sessions SessionService
	length   int
	expiry   time.Duration
	clock    Clock
	logger   *logger.Logger
}

// NewRemoteAuthenticator delegates code delivery and checking to the legacy
// API and mints a local session once it reports success.
func NewRemoteAuthenticator(api OTPAPI, users interfaces.UserStore, sessions SessionService, length int, expiry time.Duration, clock Clock, logger *logger.Logger) Authenticator {
	if clock == nil {
		clock = SystemClock()
	}
	return &remoteAuthenticator{
		api:      api,
		users:    users,
		sessions: sessions,
		length:   length,
		expiry:   expiry,
		clock:    clock,
		logger:   logger,
	}
}

func (a *remoteAuthenticator) SendCode(ctx context.Context, mobile string) (*OTPSendResult, error) {
	mobile = utils.NormalizeMobile(mobile)
	if !utils.IsValidMobile(mobile) {
		return &OTPSendResult{Accepted: false}, ErrInvalidMobile
	}
	masked := utils.MaskPhone(mobile)

	if _, err := a.api.SendOTP(ctx, mobile); err != nil {
		a.logger.WithError(err).WithField("mobile", masked).Warn("Remote OTP send failed")
		return nil, remoteOTPError(err, ErrOTPDelivery, ErrOTPDelivery)
	}

	a.logger.LogOTPEvent(masked, "sent", map[string]interface{}{"source": "remote"})
	return &OTPSendResult{
		Accepted:     true,
		MaskedMobile: masked,
		Length:       a.length,
		ExpiresIn:    a.expiry,
	}, nil
}

func (a *remoteAuthenticator) VerifyCode(ctx context.Context, mobile, code string) (*models.Session, error) {
	mobile = utils.NormalizeMobile(mobile)
	if !utils.IsValidMobile(mobile) {
		return nil, ErrInvalidMobile
	}
	masked := utils.MaskPhone(mobile)

	if _, err := a.api.VerifyOTP(ctx, mobile, code); err != nil {
		a.logger.WithError(err).WithField("mobile", masked).Warn("Remote OTP verify failed")
		return nil, remoteOTPError(err, ErrOTPMismatch, ErrOTPUnavailable)
	}

	a.logger.LogOTPEvent(masked, "verified", map[string]interface{}{"source": "remote"})
	user, err := findOrCreateUser(ctx, a.users, mobile, a.clock.Now())
	if err != nil {
		return nil, err
	}
	return a.sessions.Create(ctx, user)
}

// remoteOTPError keeps the remote message when the API rejected the call
// and reports failed when the API could not be reached.
func remoteOTPError(err error, rejected, failed error) error {
	var rejection *gateway.RemoteRejection
	if errors.As(err, &rejection) {
		return &RemoteOTPError{Kind: rejected, Message: rejection.Message}
	}
	return fmt.Errorf("%w: %v", failed, err)
}

// RemoteOTPError carries the legacy API's message for a failed OTP call.
type RemoteOTPError struct {
	Kind    error
	Message string
}

func (e *RemoteOTPError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *RemoteOTPError) Unwrap() error { return e.Kind }
