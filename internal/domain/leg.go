package domain

import (
	"fmt"
	"time"
)

type LegType string

const (
	LegPickup   LegType = "PICKUP"
	LegTransfer LegType = "TRANSFER"
	LegDelivery LegType = "DELIVERY"
)

type LegStatus string

const (
	LegPending    LegStatus = "PENDING"
	LegInProgress LegStatus = "IN_PROGRESS"
	LegCompleted  LegStatus = "COMPLETED"
	LegCancelled  LegStatus = "CANCELLED"
)

// JourneyLeg is one physical movement segment of an order's journey.
//
// Origin and destination form a closed shape over the leg type:
// PICKUP moves sender (SME) -> warehouse, TRANSFER warehouse -> warehouse,
// DELIVERY warehouse -> receiver. Validate enforces the shape at the
// boundary so the engine never sees a loosely-typed leg record.
//
// Version increments on every write; updates are CAS on (id, version).
type JourneyLeg struct {
	LegID                  int64
	OrderID                string
	Sequence               int
	Type                   LegType
	Status                 LegStatus
	AssignedShipperID      string // empty until assigned
	OriginSMEID            string
	OriginWarehouseID      string
	DestinationWarehouseID string
	DestinationIsReceiver  bool
	EstimatedDistanceKm    float64
	Version                int
	StartedAt              *time.Time
	CompletedAt            *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (l *JourneyLeg) Assigned() bool { return l.AssignedShipperID != "" }

// Origin returns the leg's origin reference (SME id or warehouse id).
func (l *JourneyLeg) Origin() string {
	if l.OriginSMEID != "" {
		return l.OriginSMEID
	}
	return l.OriginWarehouseID
}

// Destination returns the leg's destination reference.
func (l *JourneyLeg) Destination() string {
	if l.DestinationIsReceiver {
		return "RECEIVER"
	}
	return l.DestinationWarehouseID
}

// Validate checks the origin/destination shape against the leg type.
func (l *JourneyLeg) Validate() error {
	if l.OrderID == "" {
		return &ValidationError{Field: "order_id", Reason: "must not be empty"}
	}
	if l.Sequence < 1 {
		return &ValidationError{Field: "sequence", Reason: "must be >= 1"}
	}
	if l.EstimatedDistanceKm < 0 {
		return &ValidationError{Field: "estimated_distance", Reason: "must be non-negative"}
	}

	switch l.Type {
	case LegPickup:
		if l.OriginSMEID == "" || l.OriginWarehouseID != "" {
			return &ValidationError{Field: "origin", Reason: "pickup legs originate at an SME"}
		}
		if l.DestinationWarehouseID == "" || l.DestinationIsReceiver {
			return &ValidationError{Field: "destination", Reason: "pickup legs end at a warehouse"}
		}
	case LegTransfer:
		if l.OriginWarehouseID == "" || l.OriginSMEID != "" {
			return &ValidationError{Field: "origin", Reason: "transfer legs originate at a warehouse"}
		}
		if l.DestinationWarehouseID == "" || l.DestinationIsReceiver {
			return &ValidationError{Field: "destination", Reason: "transfer legs end at a warehouse"}
		}
		if l.DestinationWarehouseID == l.OriginWarehouseID {
			return &ValidationError{Field: "destination", Reason: "transfer legs must change warehouse"}
		}
	case LegDelivery:
		if l.OriginWarehouseID == "" || l.OriginSMEID != "" {
			return &ValidationError{Field: "origin", Reason: "delivery legs originate at a warehouse"}
		}
		if !l.DestinationIsReceiver || l.DestinationWarehouseID != "" {
			return &ValidationError{Field: "destination", Reason: "delivery legs end at the receiver"}
		}
	default:
		return &ValidationError{Field: "leg_type", Reason: fmt.Sprintf("unknown leg type %q", l.Type)}
	}

	return nil
}

// ValidateChain checks that legs (sorted by sequence) form a contiguous
// journey: sequences exactly 1..N and each leg starting where its
// predecessor ended.
func ValidateChain(legs []*JourneyLeg) error {
	for i, l := range legs {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("leg %d: %w", i+1, err)
		}
		if l.Sequence != i+1 {
			return &ValidationError{
				Field:  "sequence",
				Reason: fmt.Sprintf("expected %d, got %d", i+1, l.Sequence),
			}
		}
		if i > 0 && legs[i-1].DestinationWarehouseID != l.OriginWarehouseID {
			return &ValidationError{
				Field: "origin",
				Reason: fmt.Sprintf("leg %d origin %q does not match leg %d destination %q",
					l.Sequence, l.OriginWarehouseID, legs[i-1].Sequence, legs[i-1].DestinationWarehouseID),
			}
		}
	}

	if len(legs) > 0 {
		if legs[len(legs)-1].Type != LegDelivery {
			return &ValidationError{Field: "leg_type", Reason: "journey must end with a DELIVERY leg"}
		}
	}

	return nil
}
