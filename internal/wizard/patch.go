package wizard

import (
	"fmt"
	"time"

	"driverhire/internal/models"
)

// Patch carries field updates from the customer. Nil fields are left
// alone; Clear names fields to reset to empty.
type Patch struct {
	TripType            *string          `json:"tripType,omitempty"`
	PickupLocation      *models.Location `json:"pickupLocation,omitempty"`
	DropLocation        *models.Location `json:"dropLocation,omitempty"`
	ScheduledTime       *time.Time       `json:"scheduledTime,omitempty"`
	ReturnTime          *time.Time       `json:"returnTime,omitempty"`
	CarType             *string          `json:"carType,omitempty"`
	VehicleSize         *string          `json:"vehicleSize,omitempty"`
	EstimatedUsageHours *int             `json:"estimatedUsageHours,omitempty"`
	DamageProtection    *bool            `json:"damageProtection,omitempty"`
	PhoneNumber         *string          `json:"phoneNumber,omitempty"`
	Clear               []string         `json:"clear,omitempty"`
}

// apply writes the patch into draft and reports which fields changed and
// whether any of them feed the fare. The draft is untouched on error.
func (p *Patch) apply(draft *models.BookingDraft, allowTripType func(models.TripType) bool) (changed []string, fareChanged bool, err error) {
	next := draft.Clone()

	mark := func(field string, affectsFare bool) {
		changed = append(changed, field)
		fareChanged = fareChanged || affectsFare
	}

	if p.TripType != nil {
		tripType, err := models.ParseTripType(*p.TripType)
		if err != nil || !allowTripType(tripType) {
			return nil, false, fmt.Errorf("%w: trip type %q", ErrInvalidPatch, *p.TripType)
		}
		next.TripType = tripType
		if tripType != models.TripTypeRoundTrip {
			next.ReturnTime = nil
		}
		mark("tripType", true)
	}
	if p.PickupLocation != nil {
		loc := *p.PickupLocation
		next.PickupLocation = &loc
		mark(models.FieldPickup, true)
	}
	if p.DropLocation != nil {
		loc := *p.DropLocation
		next.DropLocation = &loc
		mark(models.FieldDrop, true)
	}
	if p.ScheduledTime != nil {
		t := *p.ScheduledTime
		next.ScheduledTime = &t
		mark(models.FieldScheduledTime, true)
	}
	if p.ReturnTime != nil {
		t := *p.ReturnTime
		next.ReturnTime = &t
		mark(models.FieldReturnTime, false)
	}
	if p.CarType != nil {
		carType, err := models.ParseCarType(*p.CarType)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
		next.CarType = carType
		mark("carType", false)
	}
	if p.VehicleSize != nil {
		size, err := models.ParseVehicleSize(*p.VehicleSize)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
		}
		next.VehicleSize = size
		mark(models.FieldVehicleSize, true)
	}
	if p.EstimatedUsageHours != nil {
		next.EstimatedUsageHours = *p.EstimatedUsageHours
		mark(models.FieldUsageHours, true)
	}
	if p.DamageProtection != nil {
		next.DamageProtection = *p.DamageProtection
		mark("damageProtection", true)
	}
	if p.PhoneNumber != nil {
		next.PhoneNumber = *p.PhoneNumber
		mark(models.FieldPhone, false)
	}

	for _, field := range p.Clear {
		switch field {
		case models.FieldPickup:
			next.PickupLocation = nil
		case models.FieldDrop:
			next.DropLocation = nil
		case models.FieldScheduledTime:
			next.ScheduledTime = nil
		case models.FieldReturnTime:
			next.ReturnTime = nil
			mark(field, false)
			continue
		case models.FieldVehicleSize:
			next.VehicleSize = ""
		default:
			return nil, false, fmt.Errorf("%w: cannot clear %q", ErrInvalidPatch, field)
		}
		mark(field, true)
	}

	for _, field := range changed {
		next.ClearError(field)
	}
	*draft = *next
	return changed, fareChanged, nil
}
