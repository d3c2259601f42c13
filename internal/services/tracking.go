package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/ports"
)

// TrackingService projects orders and legs into read models for the
// dispatch board and the customer-facing tracking view. It never
// mutates anything.
type TrackingService struct {
	Orders     ports.OrderRepository
	Legs       ports.LegRepository
	Warehouses ports.WarehouseRepository
	Shippers   ports.ShipperRepository
}

// DispatchEntry is one in-flight order on the dispatch board.
type DispatchEntry struct {
	OrderID         string             `json:"order_id"`
	Code            string             `json:"code"`
	Status          domain.OrderStatus `json:"status"`
	AreaID          string             `json:"area_id"`
	Priority        string             `json:"priority"`
	TotalDistanceKm float64            `json:"total_distance_km"`
	LegsTotal       int                `json:"legs_total"`
	LegsCompleted   int                `json:"legs_completed"`
	CurrentLegType  domain.LegType     `json:"current_leg_type,omitempty"`
}

// DispatchSummary is the dispatch board: every order still moving.
type DispatchSummary struct {
	Orders      []DispatchEntry `json:"orders"`
	TotalOrders int             `json:"total_orders"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// TrackingStop is one point on an order's journey timeline.
type TrackingStop struct {
	Sequence    int              `json:"sequence"`
	Type        domain.LegType   `json:"type"`
	Status      domain.LegStatus `json:"status"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	ShipperID   string           `json:"shipper_id,omitempty"`
	DistanceKm  float64          `json:"distance_km"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// OrderTracking is the customer-facing journey projection.
type OrderTracking struct {
	OrderID         string             `json:"order_id"`
	Code            string             `json:"code"`
	Status          domain.OrderStatus `json:"status"`
	Receiver        string             `json:"receiver"`
	Address         string             `json:"address"`
	TotalDistanceKm float64            `json:"total_distance_km"`
	Stops           []TrackingStop     `json:"stops"`
}

var boardStatuses = []domain.OrderStatus{
	domain.OrderPending,
	domain.OrderInTransit,
	domain.OrderAtWarehouse,
	domain.OrderDelivering,
}

// Summary builds the dispatch board over every non-terminal order.
func (t *TrackingService) Summary(ctx context.Context) (*DispatchSummary, error) {
	summary := &DispatchSummary{GeneratedAt: time.Now().UTC()}

	orders, err := t.Orders.ListOrdersByStatus(ctx, boardStatuses)
	if err != nil {
		return nil, fmt.Errorf("dispatch summary: %w", err)
	}
	for _, order := range orders {
		entry, err := t.boardEntry(ctx, order)
		if err != nil {
			return nil, err
		}
		summary.Orders = append(summary.Orders, *entry)
	}

	sort.Slice(summary.Orders, func(i, j int) bool {
		a, b := summary.Orders[i], summary.Orders[j]
		if a.Priority != b.Priority {
			return priorityRank(a.Priority) < priorityRank(b.Priority)
		}
		return a.OrderID < b.OrderID
	})
	summary.TotalOrders = len(summary.Orders)
	return summary, nil
}

// PendingOrders lists orders waiting for a journey plan or a first
// assignment.
func (t *TrackingService) PendingOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := t.Orders.ListOrdersByStatus(ctx, []domain.OrderStatus{domain.OrderPending})
	if err != nil {
		return nil, fmt.Errorf("pending orders: %w", err)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

// ShippersByArea lists an area's shippers, active ones first, then by
// rating so dispatchers see the best candidates at the top.
func (t *TrackingService) ShippersByArea(ctx context.Context, areaID string) ([]*domain.Shipper, error) {
	shippers, err := t.Shippers.ListShippersByArea(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("shippers by area: %w", err)
	}
	sort.Slice(shippers, func(i, j int) bool {
		a, b := shippers[i], shippers[j]
		if a.Status != b.Status {
			return a.Status == domain.ShipperActive
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.ShipperID < b.ShipperID
	})
	return shippers, nil
}

// Track builds the journey timeline for one order.
func (t *TrackingService) Track(ctx context.Context, orderID string) (*OrderTracking, error) {
	order, err := t.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("track order: %w", err)
	}
	legs, err := t.Legs.ListLegsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("track order: %w", err)
	}

	tracking := &OrderTracking{
		OrderID:  order.OrderID,
		Code:     order.Code,
		Status:   order.Status,
		Receiver: order.Receiver.Name,
		Address:  order.Receiver.Address,
	}
	names := map[string]string{}
	for _, leg := range legs {
		stop := TrackingStop{
			Sequence:    leg.Sequence,
			Type:        leg.Type,
			Status:      leg.Status,
			Origin:      t.placeName(ctx, names, leg.Origin(), leg),
			Destination: t.placeName(ctx, names, leg.Destination(), leg),
			ShipperID:   leg.AssignedShipperID,
			DistanceKm:  leg.EstimatedDistanceKm,
			StartedAt:   leg.StartedAt,
			CompletedAt: leg.CompletedAt,
		}
		tracking.Stops = append(tracking.Stops, stop)
		if leg.Status != domain.LegCancelled {
			tracking.TotalDistanceKm = roundKm(tracking.TotalDistanceKm + leg.EstimatedDistanceKm)
		}
	}
	return tracking, nil
}

func (t *TrackingService) boardEntry(ctx context.Context, order *domain.Order) (*DispatchEntry, error) {
	legs, err := t.Legs.ListLegsByOrder(ctx, order.OrderID)
	if err != nil {
		return nil, fmt.Errorf("dispatch summary: order %s: %w", order.OrderID, err)
	}

	entry := &DispatchEntry{
		OrderID:  order.OrderID,
		Code:     order.Code,
		Status:   order.Status,
		AreaID:   order.AreaID,
		Priority: orderPriority(order),
	}
	for _, leg := range legs {
		if leg.Status == domain.LegCancelled {
			continue
		}
		entry.LegsTotal++
		entry.TotalDistanceKm = roundKm(entry.TotalDistanceKm + leg.EstimatedDistanceKm)
		switch leg.Status {
		case domain.LegCompleted:
			entry.LegsCompleted++
		case domain.LegInProgress:
			entry.CurrentLegType = leg.Type
		}
	}
	return entry, nil
}

// placeName resolves warehouse ids to display names, memoized per call.
// SMEs and the receiver keep their raw labels.
func (t *TrackingService) placeName(
	ctx context.Context,
	cache map[string]string,
	place string,
	leg *domain.JourneyLeg,
) string {
	if place != leg.OriginWarehouseID && place != leg.DestinationWarehouseID {
		return place
	}
	if name, ok := cache[place]; ok {
		return name
	}
	wh, err := t.Warehouses.GetWarehouse(ctx, place)
	if err != nil {
		cache[place] = place
		return place
	}
	cache[place] = wh.Name
	return wh.Name
}

// orderPriority is a display heuristic for the dispatch board: heavy or
// flagged-urgent orders surface first, lightweight parcels sink.
func orderPriority(order *domain.Order) string {
	if strings.Contains(strings.ToLower(order.Note), "urgent") {
		return "HIGH"
	}
	if order.WeightKg > 10 {
		return "HIGH"
	}
	if order.WeightKg < 2 {
		return "LOW"
	}
	return "NORMAL"
}

func priorityRank(p string) int {
	switch p {
	case "HIGH":
		return 0
	case "NORMAL":
		return 1
	default:
		return 2
	}
}
