package domain

import "math"

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lon float64
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance to other in kilometers.
// Used as the straight-line fallback when no routing provider is configured.
func (c Coordinates) HaversineKm(other Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180
	lon1 := c.Lon * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	lon2 := other.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func (c Coordinates) IsZero() bool { return c.Lat == 0 && c.Lon == 0 }
