package models

import "time"

// Session is the authenticated identity established by OTP or password login.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	MobileNumber string    `json:"mobileNumber"`
	IssuedToken  string    `json:"token"`
	Expiry       time.Time `json:"expiry"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return s == nil || !now.Before(s.Expiry)
}
