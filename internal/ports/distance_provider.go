package ports

import (
	"context"

	"dispatch-service/internal/domain"
)

// Contract for retrieving travel distance between two points.
type DistanceProvider interface {
	// GetDistanceKm returns the travel distance in kilometers.
	GetDistanceKm(ctx context.Context, origin, destination domain.Coordinates) (float64, error)
}
