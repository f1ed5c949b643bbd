package utils

import "time"

// Application Constants
const (
	AppName = "DriverHire"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	OTPExpiry      = 5 * time.Minute
	OTPMaxAttempts = 3

	// Booking
	MaxUsageHours = 24
	MinUsageHours = 1
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrValidationFailed = "validation failed"
	ErrBookingFailed    = "We could not place your booking. Please try again."
	ErrUpstreamFailed   = "booking service unavailable"
)

// Cache Keys
const (
	CacheOTPPrefix     = "otp:"
	CacheSessionPrefix = "session:"
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)
