package utils

import (
	"regexp"
	"strings"
)

// Local mobile numbers: 10 digits starting 6-9.
var mobileRegex = regexp.MustCompile(`^[6-9]\d{9}$`)

var nonDigitRegex = regexp.MustCompile(`[^\d]`)

// NormalizeMobile strips formatting and a leading +91/91/0 so callers can
// accept the ways customers actually type their number.
func NormalizeMobile(phone string) string {
	cleaned := nonDigitRegex.ReplaceAllString(phone, "")

	switch {
	case len(cleaned) == 12 && strings.HasPrefix(cleaned, "91"):
		cleaned = cleaned[2:]
	case len(cleaned) == 11 && strings.HasPrefix(cleaned, "0"):
		cleaned = cleaned[1:]
	}

	return cleaned
}

func IsValidMobile(phone string) bool {
	return mobileRegex.MatchString(phone)
}

// ToE164 formats a local mobile number for SMS providers.
func ToE164(phone string) string {
	return "+91" + NormalizeMobile(phone)
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}

	// Show last 4 digits
	masked := strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
	return masked
}

func ValidateOTP(otp string, length int) bool {
	if len(otp) != length {
		return false
	}

	for _, char := range otp {
		if char < '0' || char > '9' {
			return false
		}
	}

	return true
}
