package services

import (
	"context"
	"math"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/ports"

	"go.uber.org/zap"
)

// roundKm normalizes distances to two decimals for storage and display.
func roundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// legDistanceKm resolves the travel distance between two points using the
// routing provider when one is configured, falling back to the
// straight-line estimate when it is absent or fails. Planning should
// degrade to a rough estimate rather than fail on a routing outage.
func legDistanceKm(
	ctx context.Context,
	provider ports.DistanceProvider,
	origin, destination domain.Coordinates,
) float64 {
	if provider != nil {
		km, err := provider.GetDistanceKm(ctx, origin, destination)
		if err == nil && km >= 0 {
			return roundKm(km)
		}
		if err != nil {
			zap.L().Warn("distance provider failed, using straight-line estimate",
				zap.Error(err))
		}
	}
	return roundKm(origin.HaversineKm(destination))
}
