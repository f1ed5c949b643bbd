package services

import (
	"context"
	"math"

	"driverhire/internal/models"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
	"driverhire/pkg/maps"
)

// DistanceService estimates trip kilometers for fare quotes.
type DistanceService interface {
	Kilometers(ctx context.Context, from, to *models.Location) float64
}

type distanceService struct {
	provider maps.DistanceProvider
	logger   *logger.Logger
}

// NewDistanceService uses road distance when provider is set and falls
// back to great-circle distance, or 0 without coordinates.
func NewDistanceService(provider maps.DistanceProvider, logger *logger.Logger) DistanceService {
	return &distanceService{provider: provider, logger: logger}
}

func (d *distanceService) Kilometers(ctx context.Context, from, to *models.Location) float64 {
	if !from.HasCoordinates() || !to.HasCoordinates() {
		return 0
	}

	if d.provider != nil {
		resp, err := d.provider.CalculateDistance(ctx, &maps.DistanceRequest{
			Origins:      []maps.Location{{Latitude: *from.Lat, Longitude: *from.Lng}},
			Destinations: []maps.Location{{Latitude: *to.Lat, Longitude: *to.Lng}},
		})
		if err == nil {
			if km, ok := resp.FirstKilometers(); ok {
				return roundKm(km)
			}
		} else if ctx.Err() == nil {
			d.logger.WithError(err).Warn("Road distance lookup failed, using straight-line distance")
		}
	}

	return roundKm(utils.CalculateDistance(*from.Lat, *from.Lng, *to.Lat, *to.Lng))
}

func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
