package distance

import (
	"context"

	"dispatch-service/internal/domain"
)

// MockDistanceProvider serves fixed distances for known coordinate
// pairs. Used in development wiring when no routing API key is set, and
// in tests.
type MockPair struct {
	From, To domain.Coordinates
	Km       float64
}

type MockDistanceProvider struct {
	m map[[4]float64]float64
	// Fallback answers unknown pairs with the straight-line estimate
	// instead of an error.
	Fallback bool
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[[4]float64]float64, len(pairs))
	for _, p := range pairs {
		m[pairKey(p.From, p.To)] = p.Km
	}
	return &MockDistanceProvider{m: m, Fallback: true}
}

func (p *MockDistanceProvider) GetDistanceKm(
	_ context.Context,
	origin, destination domain.Coordinates,
) (float64, error) {
	if km, ok := p.m[pairKey(origin, destination)]; ok {
		return km, nil
	}
	if p.Fallback {
		return origin.HaversineKm(destination), nil
	}
	return 0, &domain.NotFoundError{Kind: "distance pair", ID: coordsParam(origin) + "|" + coordsParam(destination)}
}

func pairKey(from, to domain.Coordinates) [4]float64 {
	return [4]float64{from.Lat, from.Lon, to.Lat, to.Lon}
}
