package wizard

import (
	"time"

	"driverhire/internal/models"
	"driverhire/internal/utils"
)

// ValidateSchedule checks the locations and schedule step. It never
// touches the network.
func ValidateSchedule(draft *models.BookingDraft, now time.Time) models.ValidationErrors {
	errs := models.ValidationErrors{}

	if draft.PickupLocation == nil {
		errs.Add(models.FieldPickup, "Please select a pickup location.")
	}
	if draft.DropLocation == nil && draft.TripType.RequiresDrop() {
		if draft.TripType == models.TripTypeOutstation {
			errs.Add(models.FieldDrop, "Please select your destination city.")
		} else {
			errs.Add(models.FieldDrop, "Please select a drop location.")
		}
	}
	if draft.TripType == models.TripTypeOneWay && draft.PickupLocation != nil && draft.PickupLocation.Equal(draft.DropLocation) {
		errs.Add(models.FieldDrop, "Pickup and drop locations must be different.")
	}

	validateScheduledTime(draft, now, true, errs)

	if draft.ReturnTime != nil {
		switch {
		case draft.TripType != models.TripTypeRoundTrip:
			errs.Add(models.FieldReturnTime, "Return time applies to round trips only.")
		case draft.ScheduledTime != nil && !draft.ReturnTime.After(*draft.ScheduledTime):
			errs.Add(models.FieldReturnTime, "Return time must be after the pickup time.")
		}
	}

	validateVehicleAndUsage(draft, errs)
	return errs
}

// ValidateDaily checks the single-screen daily form before submission.
func ValidateDaily(draft *models.BookingDraft, now time.Time) models.ValidationErrors {
	errs := models.ValidationErrors{}
	if draft.PickupLocation == nil {
		errs.Add(models.FieldPickup, "Please select a pickup location.")
	}
	validateScheduledTime(draft, now, false, errs)
	validateVehicleAndUsage(draft, errs)
	return errs
}

func validateScheduledTime(draft *models.BookingDraft, now time.Time, required bool, errs models.ValidationErrors) {
	switch {
	case draft.ScheduledTime == nil:
		if required {
			errs.Add(models.FieldScheduledTime, "Please select a pickup date and time.")
		}
	case !draft.ScheduledTime.After(now):
		errs.Add(models.FieldScheduledTime, "Pickup time must be in the future.")
	}
}

func validateVehicleAndUsage(draft *models.BookingDraft, errs models.ValidationErrors) {
	if draft.VehicleSize == "" {
		errs.Add(models.FieldVehicleSize, "Please choose a vehicle type.")
	}
	if draft.EstimatedUsageHours < utils.MinUsageHours || draft.EstimatedUsageHours > utils.MaxUsageHours {
		errs.Add(models.FieldUsageHours, "Usage must be between 1 and 24 hours.")
	}
}

// ValidatePhone checks the number a code will be sent to.
func ValidatePhone(phone string) (string, bool) {
	normalized := utils.NormalizeMobile(phone)
	return normalized, utils.IsValidMobile(normalized)
}
