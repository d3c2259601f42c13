package dto

import (
	"time"

	"dispatch-service/internal/domain"
)

// Requests

type CreateOrderRequest struct {
	SMEID           string  `json:"sme_id" binding:"required"`
	AreaID          string  `json:"area_id" binding:"required"`
	ReceiverName    string  `json:"receiver_name" binding:"required"`
	ReceiverPhone   string  `json:"receiver_phone"`
	ReceiverAddress string  `json:"receiver_address" binding:"required"`
	ReceiverLat     float64 `json:"receiver_lat"`
	ReceiverLon     float64 `json:"receiver_lon"`
	WeightKg        float64 `json:"weight_kg" binding:"required"`
	Dimensions      string  `json:"dimensions"`
	Note            string  `json:"note"`
}

// AssignShipperRequest starts a journey: plans the legs when the order
// has none, then puts a shipper on the first leg.
type AssignShipperRequest struct {
	OrderID             string `json:"order_id" binding:"required"`
	ShipperID           string `json:"shipper_id" binding:"required"`
	HubID               string `json:"hub_id"`
	DeliveryWarehouseID string `json:"delivery_warehouse_id"`
}

type AssignLegShipperRequest struct {
	OrderID     string `json:"order_id" binding:"required"`
	ShipperID   string `json:"shipper_id" binding:"required"`
	WarehouseID string `json:"warehouse_id"`
}

type UpdateLegRequest struct {
	ShipperID              *string  `json:"shipper_id"`
	OriginWarehouseID      *string  `json:"origin_warehouse_id"`
	DestinationWarehouseID *string  `json:"destination_warehouse_id"`
	Status                 *string  `json:"status"`
	EstimatedDistanceKm    *float64 `json:"estimated_distance_km"`
}

type OptimizeRequest struct {
	TargetID string `json:"target_id"`
}

// Responses

type OrderResponse struct {
	OrderID         string    `json:"order_id"`
	Code            string    `json:"code"`
	SMEID           string    `json:"sme_id"`
	AreaID          string    `json:"area_id"`
	ReceiverName    string    `json:"receiver_name"`
	ReceiverAddress string    `json:"receiver_address"`
	WeightKg        float64   `json:"weight_kg"`
	Note            string    `json:"note,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func FromOrder(o *domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:         o.OrderID,
		Code:            o.Code,
		SMEID:           o.SMEID,
		AreaID:          o.AreaID,
		ReceiverName:    o.Receiver.Name,
		ReceiverAddress: o.Receiver.Address,
		WeightKg:        o.WeightKg,
		Note:            o.Note,
		Status:          string(o.Status),
		CreatedAt:       o.CreatedAt,
	}
}

type LegResponse struct {
	LegID                  int64      `json:"leg_id"`
	OrderID                string     `json:"order_id"`
	Sequence               int        `json:"sequence"`
	Type                   string     `json:"type"`
	Status                 string     `json:"status"`
	AssignedShipperID      string     `json:"assigned_shipper_id,omitempty"`
	OriginSMEID            string     `json:"origin_sme_id,omitempty"`
	OriginWarehouseID      string     `json:"origin_warehouse_id,omitempty"`
	DestinationWarehouseID string     `json:"destination_warehouse_id,omitempty"`
	DestinationIsReceiver  bool       `json:"destination_is_receiver"`
	EstimatedDistanceKm    float64    `json:"estimated_distance_km"`
	Version                int        `json:"version"`
	StartedAt              *time.Time `json:"started_at,omitempty"`
	CompletedAt            *time.Time `json:"completed_at,omitempty"`
}

func FromLeg(l *domain.JourneyLeg) LegResponse {
	return LegResponse{
		LegID:                  l.LegID,
		OrderID:                l.OrderID,
		Sequence:               l.Sequence,
		Type:                   string(l.Type),
		Status:                 string(l.Status),
		AssignedShipperID:      l.AssignedShipperID,
		OriginSMEID:            l.OriginSMEID,
		OriginWarehouseID:      l.OriginWarehouseID,
		DestinationWarehouseID: l.DestinationWarehouseID,
		DestinationIsReceiver:  l.DestinationIsReceiver,
		EstimatedDistanceKm:    l.EstimatedDistanceKm,
		Version:                l.Version,
		StartedAt:              l.StartedAt,
		CompletedAt:            l.CompletedAt,
	}
}

func FromLegs(legs []*domain.JourneyLeg) []LegResponse {
	out := make([]LegResponse, 0, len(legs))
	for _, l := range legs {
		out = append(out, FromLeg(l))
	}
	return out
}

type ShipperResponse struct {
	ShipperID string  `json:"shipper_id"`
	Name      string  `json:"name"`
	Vehicle   string  `json:"vehicle"`
	AreaID    string  `json:"area_id"`
	Status    string  `json:"status"`
	Rating    float64 `json:"rating"`
}

func FromShippers(shippers []*domain.Shipper) []ShipperResponse {
	out := make([]ShipperResponse, 0, len(shippers))
	for _, s := range shippers {
		out = append(out, ShipperResponse{
			ShipperID: s.ShipperID,
			Name:      s.Name,
			Vehicle:   string(s.Vehicle),
			AreaID:    s.AreaID,
			Status:    string(s.Status),
			Rating:    s.Rating,
		})
	}
	return out
}

type ErrorResponse struct {
	Error string `json:"error"`
}
