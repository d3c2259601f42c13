package domain

import "fmt"

type VehicleType string

const (
	VehicleMotorbike VehicleType = "MOTORBIKE"
	VehicleVan       VehicleType = "VAN"
	VehicleTruck     VehicleType = "TRUCK"
	VehicleBicycle   VehicleType = "BICYCLE"
)

type ShipperStatus string

const (
	ShipperActive   ShipperStatus = "ACTIVE"
	ShipperInactive ShipperStatus = "INACTIVE"
)

// Shipper is a courier eligible for legs within its home area.
type Shipper struct {
	ShipperID string
	Name      string
	Vehicle   VehicleType
	AreaID    string
	Status    ShipperStatus
	Rating    float64
}

// EligibleFor reports whether the shipper may serve a leg of the given
// type in the given area. Returns nil when eligible, otherwise an error
// wrapping ErrNoEligibleShipper with the specific reason.
// Eligibility is evaluated fresh at assignment time, never cached.
func (s *Shipper) EligibleFor(legType LegType, areaID string) error {
	if s.Status != ShipperActive {
		return fmt.Errorf("shipper %s is %s: %w", s.ShipperID, s.Status, ErrNoEligibleShipper)
	}
	if areaID != "" && s.AreaID != areaID {
		return fmt.Errorf("shipper %s serves area %s, leg is in %s: %w",
			s.ShipperID, s.AreaID, areaID, ErrNoEligibleShipper)
	}
	// Inter-warehouse transfers move consolidated load.
	if legType == LegTransfer && s.Vehicle != VehicleTruck && s.Vehicle != VehicleVan {
		return fmt.Errorf("transfer legs require TRUCK or VAN, shipper %s drives %s: %w",
			s.ShipperID, s.Vehicle, ErrNoEligibleShipper)
	}
	return nil
}
