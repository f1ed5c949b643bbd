package models

import (
	"fmt"
	"strings"
)

type TripType string
type CarType string
type VehicleSize string

const (
	TripTypeOneWay     TripType = "one-way"
	TripTypeRoundTrip  TripType = "round-trip"
	TripTypeOutstation TripType = "outstation"
	TripTypeDaily      TripType = "daily"

	CarTypeManual    CarType = "manual"
	CarTypeAutomatic CarType = "automatic"

	VehicleSizeHatchback VehicleSize = "hatchback"
	VehicleSizeSedan     VehicleSize = "sedan"
	VehicleSizeSUV       VehicleSize = "suv"
)

func ParseTripType(s string) (TripType, error) {
	switch t := TripType(strings.ToLower(strings.TrimSpace(s))); t {
	case TripTypeOneWay, TripTypeRoundTrip, TripTypeOutstation, TripTypeDaily:
		return t, nil
	}
	return "", fmt.Errorf("invalid trip type: %s", s)
}

func ParseCarType(s string) (CarType, error) {
	switch c := CarType(strings.ToLower(strings.TrimSpace(s))); c {
	case CarTypeManual, CarTypeAutomatic:
		return c, nil
	}
	return "", fmt.Errorf("invalid car type: %s", s)
}

func ParseVehicleSize(s string) (VehicleSize, error) {
	switch v := VehicleSize(strings.ToLower(strings.TrimSpace(s))); v {
	case VehicleSizeHatchback, VehicleSizeSedan, VehicleSizeSUV:
		return v, nil
	}
	return "", fmt.Errorf("invalid vehicle size: %s", s)
}

// RequiresDrop reports whether a drop location is mandatory for the trip type.
func (t TripType) RequiresDrop() bool {
	return t != TripTypeDaily
}
