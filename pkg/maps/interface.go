package maps

import "context"

// DistanceProvider resolves road distances between coordinate pairs.
type DistanceProvider interface {
	CalculateDistance(ctx context.Context, request *DistanceRequest) (*DistanceResponse, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Distance struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"` // in meters
}

type Duration struct {
	Text  string `json:"text"`
	Value int    `json:"value"` // in seconds
}

type DistanceRequest struct {
	Origins      []Location `json:"origins"`
	Destinations []Location `json:"destinations"`
	Mode         string     `json:"mode"`
	Units        string     `json:"units"` // metric, imperial
}

type DistanceResponse struct {
	Rows []DistanceRow `json:"rows"`
}

type DistanceRow struct {
	Elements []DistanceElement `json:"elements"`
}

type DistanceElement struct {
	Distance Distance `json:"distance"`
	Duration Duration `json:"duration"`
	Status   string   `json:"status"`
}

// FirstKilometers returns the distance of the first OK element in kilometers.
func (r *DistanceResponse) FirstKilometers() (float64, bool) {
	if r == nil {
		return 0, false
	}
	for _, row := range r.Rows {
		for _, element := range row.Elements {
			if element.Status == "OK" {
				return element.Distance.Value / 1000, true
			}
		}
	}
	return 0, false
}
