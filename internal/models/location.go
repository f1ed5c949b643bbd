package models

import "fmt"

// Location is produced by the place-search collaborator and treated as an
// opaque value by the booking flow. Identity is ID.
type Location struct {
	ID    string   `json:"id" bson:"id"`
	Name  string   `json:"name" bson:"name"`
	City  string   `json:"city,omitempty" bson:"city,omitempty"`
	State string   `json:"state,omitempty" bson:"state,omitempty"`
	Lat   *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng   *float64 `json:"lng,omitempty" bson:"lng,omitempty"`
}

// Equal reports whether both locations refer to the same place.
func (l *Location) Equal(other *Location) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.ID == other.ID
}

func (l *Location) HasCoordinates() bool {
	return l != nil && l.Lat != nil && l.Lng != nil
}

// LatLong renders coordinates the way the legacy booking API expects them ("lat, lng").
func (l *Location) LatLong() string {
	if !l.HasCoordinates() {
		return ""
	}
	return fmt.Sprintf("%f, %f", *l.Lat, *l.Lng)
}

// Label is the human-readable place text sent upstream.
func (l *Location) Label() string {
	if l == nil {
		return ""
	}
	if l.City != "" && l.City != l.Name {
		return l.Name + ", " + l.City
	}
	return l.Name
}
