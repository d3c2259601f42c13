package domain

import "time"

// Event is a typed domain event emitted by the assignment engine.
// Delivery to notification channels is a separate consumer concern;
// emission is fire-and-forget and never awaited by core logic.
type Event interface {
	EventName() string
	// Key groups all events of one order onto one partition.
	Key() string
}

type LegAssigned struct {
	OrderID   string    `json:"order_id"`
	LegID     int64     `json:"leg_id"`
	Sequence  int       `json:"sequence"`
	LegType   LegType   `json:"leg_type"`
	ShipperID string    `json:"shipper_id"`
	At        time.Time `json:"at"`
}

func (e LegAssigned) EventName() string { return "dispatch.leg_assigned" }
func (e LegAssigned) Key() string       { return e.OrderID }

type LegCompletedEvent struct {
	OrderID  string    `json:"order_id"`
	LegID    int64     `json:"leg_id"`
	Sequence int       `json:"sequence"`
	LegType  LegType   `json:"leg_type"`
	At       time.Time `json:"at"`
}

func (e LegCompletedEvent) EventName() string { return "dispatch.leg_completed" }
func (e LegCompletedEvent) Key() string       { return e.OrderID }

type OrderCompletedEvent struct {
	OrderID string    `json:"order_id"`
	Code    string    `json:"order_code"`
	At      time.Time `json:"at"`
}

func (e OrderCompletedEvent) EventName() string { return "dispatch.order_completed" }
func (e OrderCompletedEvent) Key() string       { return e.OrderID }
