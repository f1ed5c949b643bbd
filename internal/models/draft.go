package models

import "time"

const DefaultUsageHours = 4

// BookingDraft is the in-progress booking form. It has a single owner
// (one wizard) and is never shared between sessions.
type BookingDraft struct {
	TripType            TripType          `json:"tripType"`
	PickupLocation      *Location         `json:"pickupLocation"`
	DropLocation        *Location         `json:"dropLocation"`
	ScheduledTime       *time.Time        `json:"scheduledTime"`
	ReturnTime          *time.Time        `json:"returnTime,omitempty"`
	CarType             CarType           `json:"carType"`
	VehicleSize         VehicleSize       `json:"vehicleSize"`
	EstimatedUsageHours int               `json:"estimatedUsageHours"`
	DamageProtection    bool              `json:"damageProtection"`
	PhoneNumber         string            `json:"phoneNumber"`
	Errors              map[string]string `json:"errors,omitempty"`
}

func NewBookingDraft(tripType TripType) *BookingDraft {
	return &BookingDraft{
		TripType:            tripType,
		CarType:             CarTypeManual,
		EstimatedUsageHours: DefaultUsageHours,
		Errors:              make(map[string]string),
	}
}

// Clone returns a deep copy safe to hand to another goroutine.
func (d *BookingDraft) Clone() *BookingDraft {
	if d == nil {
		return nil
	}
	c := *d
	if d.PickupLocation != nil {
		p := *d.PickupLocation
		c.PickupLocation = &p
	}
	if d.DropLocation != nil {
		p := *d.DropLocation
		c.DropLocation = &p
	}
	if d.ScheduledTime != nil {
		t := *d.ScheduledTime
		c.ScheduledTime = &t
	}
	if d.ReturnTime != nil {
		t := *d.ReturnTime
		c.ReturnTime = &t
	}
	c.Errors = make(map[string]string, len(d.Errors))
	for k, v := range d.Errors {
		c.Errors[k] = v
	}
	return &c
}

func (d *BookingDraft) ClearError(field string) {
	if d.Errors != nil {
		delete(d.Errors, field)
	}
}
