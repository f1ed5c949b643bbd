package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus moves forward along Pending → Confirmed → InProgress → Completed.
// Cancelled is reachable from any non-terminal status.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

var bookingStatusRank = map[BookingStatus]int{
	BookingStatusPending:    0,
	BookingStatusConfirmed:  1,
	BookingStatusInProgress: 2,
	BookingStatusCompleted:  3,
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingStatusRank[s]
	return ok || s == BookingStatusCancelled
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether target is a legal next status. Status never regresses.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	if !s.IsValid() || !target.IsValid() || s.IsTerminal() {
		return false
	}
	if target == BookingStatusCancelled {
		return true
	}
	return bookingStatusRank[target] > bookingStatusRank[s]
}

// ParseBookingStatus accepts our own values and the labels used by the legacy API.
func ParseBookingStatus(s string) (BookingStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	switch normalized {
	case "pending", "booked", "new":
		return BookingStatusPending, nil
	case "confirmed", "assigned", "driver_assigned":
		return BookingStatusConfirmed, nil
	case "in_progress", "inprogress", "started", "ongoing":
		return BookingStatusInProgress, nil
	case "completed", "complete", "closed":
		return BookingStatusCompleted, nil
	case "cancelled", "canceled":
		return BookingStatusCancelled, nil
	}
	return "", fmt.Errorf("invalid booking status: %s", s)
}

// BookingRecord is a booking confirmed by the legacy API and mirrored locally.
type BookingRecord struct {
	Reference        string        `json:"bookingReference" bson:"_id"`
	Status           BookingStatus `json:"status" bson:"status"`
	TripType         TripType      `json:"tripType" bson:"trip_type"`
	PickupLocation   *Location     `json:"pickupLocation" bson:"pickup_location"`
	DropLocation     *Location     `json:"dropLocation,omitempty" bson:"drop_location,omitempty"`
	PickupTime       time.Time     `json:"pickupTime" bson:"pickup_time"`
	ReturnTime       *time.Time    `json:"returnTime,omitempty" bson:"return_time,omitempty"`
	CarType          CarType       `json:"carType" bson:"car_type"`
	VehicleSize      VehicleSize   `json:"vehicleSize" bson:"vehicle_size"`
	PackageHours     int           `json:"packageHours" bson:"package_hours"`
	DamageProtection bool          `json:"damageProtection" bson:"damage_protection"`
	MobileNumber     string        `json:"mobileNumber" bson:"mobile_number"`
	UserID           string        `json:"userId,omitempty" bson:"user_id,omitempty"`
	PaymentMode      string        `json:"paymentMode" bson:"payment_mode"`
	FinalAmount      int64         `json:"finalAmount" bson:"final_amount"`
	CreatedAt        time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updated_at"`
}

// BookingSummary is one row of the legacy booking history.
type BookingSummary struct {
	Reference   string        `json:"bookingReference"`
	Status      BookingStatus `json:"status"`
	RawStatus   string        `json:"rawStatus,omitempty"`
	TripType    string        `json:"tripType,omitempty"`
	Pickup      string        `json:"pickup"`
	Drop        string        `json:"drop,omitempty"`
	PickupTime  string        `json:"pickupTime"`
	FinalAmount int64         `json:"finalAmount"`
}

type BookingHistory struct {
	Upcoming []BookingSummary `json:"upcoming"`
	Past     []BookingSummary `json:"past"`
}
