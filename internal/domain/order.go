package domain

import "time"

type OrderStatus string

const (
	OrderPending     OrderStatus = "PENDING"
	OrderInTransit   OrderStatus = "IN_TRANSIT"
	OrderAtWarehouse OrderStatus = "AT_WAREHOUSE"
	OrderDelivering  OrderStatus = "DELIVERING"
	OrderCompleted   OrderStatus = "COMPLETED"
	OrderCancelled   OrderStatus = "CANCELLED"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// Receiver is the final consignee of an order.
type Receiver struct {
	Name    string
	Phone   string
	Address string
	Coords  Coordinates
}

// Order is a shipment request from an SME sender to a receiver.
// Status is derived from the order's legs (DeriveOrderStatus) and is
// never set directly by a caller once legs exist.
type Order struct {
	OrderID    string
	Code       string
	SMEID      string
	AreaID     string
	Receiver   Receiver
	WeightKg   float64
	Dimensions string
	Note       string
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DeriveOrderStatus computes an order's status from its legs, so the
// displayed state always matches what the legs actually say.
//
// No legs means the journey has not been planned: PENDING. All legs
// COMPLETED means the parcel is with the receiver: COMPLETED. A running
// DELIVERY leg is DELIVERING, any other running leg is IN_TRANSIT. A
// completed leg with the next one not yet started means the parcel sits
// at a warehouse: AT_WAREHOUSE. Cancelled legs are ignored.
func DeriveOrderStatus(legs []*JourneyLeg) OrderStatus {
	live := 0
	completed := 0
	for _, l := range legs {
		switch l.Status {
		case LegCancelled:
			continue
		case LegInProgress:
			if l.Type == LegDelivery {
				return OrderDelivering
			}
			return OrderInTransit
		case LegCompleted:
			completed++
		}
		live++
	}

	if live == 0 {
		return OrderPending
	}
	if completed == live {
		return OrderCompleted
	}
	if completed > 0 {
		return OrderAtWarehouse
	}
	return OrderPending
}

// CanCancel reports whether the order may still be cancelled: only a
// completed final delivery makes cancellation impossible. Cancellation
// after partial fulfilment is a business decision left to the caller.
func CanCancel(legs []*JourneyLeg) bool {
	for _, l := range legs {
		if l.Type == LegDelivery && l.Status == LegCompleted {
			return false
		}
	}
	return true
}
