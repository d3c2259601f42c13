package ports

import (
	"context"

	"dispatch-service/internal/domain"
)

// Suggestion is one autocomplete candidate for a partial address.
type Suggestion struct {
	PlaceID string
	Label   string
	Coords  domain.Coordinates
}

// Contract for resolving addresses to coordinates.
type Geocoder interface {
	Autocomplete(ctx context.Context, text string) ([]Suggestion, error)
	PlaceDetail(ctx context.Context, placeID string) (domain.Coordinates, error)
	// Resolve geocodes a full address directly.
	Resolve(ctx context.Context, address string) (domain.Coordinates, error)
}
