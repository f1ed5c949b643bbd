package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) CalculateDistance(ctx context.Context, request *DistanceRequest) (*DistanceResponse, error) {
	origins := make([]string, len(request.Origins))
	for i, origin := range request.Origins {
		origins[i] = fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude)
	}

	destinations := make([]string, len(request.Destinations))
	for i, dest := range request.Destinations {
		destinations[i] = fmt.Sprintf("%f,%f", dest.Latitude, dest.Longitude)
	}

	mode := request.Mode
	if mode == "" {
		mode = string(maps.TravelModeDriving)
	}
	units := request.Units
	if units == "" {
		units = string(maps.UnitsMetric)
	}

	req := &maps.DistanceMatrixRequest{
		Origins:      origins,
		Destinations: destinations,
		Mode:         maps.Mode(mode),
		Units:        maps.Units(units),
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}

	rows := make([]DistanceRow, len(resp.Rows))
	for i, row := range resp.Rows {
		elements := make([]DistanceElement, len(row.Elements))
		for j, element := range row.Elements {
			elements[j] = DistanceElement{
				Distance: Distance{
					Text:  element.Distance.HumanReadable,
					Value: float64(element.Distance.Meters),
				},
				Duration: Duration{
					Text:  element.Duration.String(),
					Value: int(element.Duration.Seconds()),
				},
				Status: element.Status,
			}
		}
		rows[i] = DistanceRow{Elements: elements}
	}

	return &DistanceResponse{Rows: rows}, nil
}
