package models

import (
	"sort"
	"strings"
)

// Field names used as keys in ValidationErrors and BookingDraft.Errors.
const (
	FieldPickup        = "pickupLocation"
	FieldDrop          = "dropLocation"
	FieldScheduledTime = "scheduledTime"
	FieldReturnTime    = "returnTime"
	FieldVehicleSize   = "vehicleSize"
	FieldUsageHours    = "estimatedUsageHours"
	FieldPhone         = "phoneNumber"
	FieldFare          = "fare"
	FieldOTP           = "otp"
	FieldSession       = "session"
)

// ValidationErrors maps a field to a user-facing message. It never reaches the network.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// OrNil returns nil when there is nothing to report so callers can return it as an error.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
