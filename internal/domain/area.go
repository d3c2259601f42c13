package domain

type AreaStatus string

const (
	AreaActive   AreaStatus = "ACTIVE"
	AreaInactive AreaStatus = "INACTIVE"
)

// Area is a geographic partition keying shipper and warehouse
// eligibility. Dispatch reads areas but never mutates them.
type Area struct {
	AreaID   string
	Name     string
	Type     string
	Status   AreaStatus
	Center   Coordinates
	RadiusKm float64
}
