package models

import "time"

type OTPPurpose string

const (
	// OTPPurposeBooking is the consumer booking login (short code).
	OTPPurposeBooking OTPPurpose = "booking"
	// OTPPurposeSignup is the account signup flow (long code).
	OTPPurposeSignup OTPPurpose = "signup"
)

// OTPRecord is the single active code for a mobile number.
type OTPRecord struct {
	MobileNumber string     `json:"mobile_number"`
	Purpose      OTPPurpose `json:"purpose"`
	Code         string     `json:"code"`
	IssuedAt     time.Time  `json:"issued_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	Verified     bool       `json:"verified"`
	Attempts     int        `json:"attempts"`
}

func (r *OTPRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
