package services

import "errors"

// Authentication failures. Each is resolved into a field-level message
// and never surfaces as a raw error string.
var (
	ErrInvalidMobile        = errors.New("invalid mobile number")
	ErrOTPNotFound          = errors.New("no active otp for this number")
	ErrOTPExpired           = errors.New("otp expired")
	ErrOTPMismatch          = errors.New("otp does not match")
	ErrOTPAlreadyUsed       = errors.New("otp already used")
	ErrOTPAttemptsExhausted = errors.New("otp attempts exhausted")
	ErrOTPDelivery          = errors.New("otp could not be delivered")
	ErrOTPUnavailable       = errors.New("otp verification unavailable")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserExists           = errors.New("user already exists")
	ErrWeakPassword         = errors.New("password too short")
	ErrSessionInvalid       = errors.New("session invalid or expired")
)

var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
)

// OTPErrorMessage maps authentication failures to what the customer sees.
func OTPErrorMessage(err error) string {
	var remote *RemoteOTPError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	switch {
	case errors.Is(err, ErrInvalidMobile):
		return "Enter a valid 10-digit mobile number."
	case errors.Is(err, ErrOTPExpired):
		return "This code has expired. Please request a new one."
	case errors.Is(err, ErrOTPMismatch):
		return "Incorrect code. Please try again."
	case errors.Is(err, ErrOTPAttemptsExhausted):
		return "Too many incorrect attempts. Please request a new code."
	case errors.Is(err, ErrOTPAlreadyUsed):
		return "This code has already been used."
	case errors.Is(err, ErrOTPNotFound):
		return "No active code for this number. Please request a new one."
	case errors.Is(err, ErrOTPDelivery):
		return "We could not send the code. Please try again."
	case errors.Is(err, ErrOTPUnavailable):
		return "We could not check the code right now. Please try again."
	default:
		return "Verification failed. Please try again."
	}
}
