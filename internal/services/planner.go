package services

import (
	"context"
	"fmt"
	"time"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/ports"
)

// A sender closer to the hub than this is treated as co-located with it,
// and the journey starts directly at the hub with no PICKUP leg.
const colocatedKm = 0.05

// JourneyPlanner decomposes a PENDING order into an ordered leg plan:
// PICKUP (SME -> hub), optional TRANSFER (hub -> delivery warehouse),
// DELIVERY (warehouse -> receiver).
type JourneyPlanner struct {
	Orders     ports.OrderRepository
	Legs       ports.LegRepository
	Warehouses ports.WarehouseRepository
	SMEs       ports.SMERepository
	Geocoder   ports.Geocoder
	Distance   ports.DistanceProvider
}

// PlanJourney selects the pickup hub and delivery warehouse for the
// order and persists the resulting leg plan atomically.
func (p *JourneyPlanner) PlanJourney(ctx context.Context, orderID string) ([]*domain.JourneyLeg, error) {
	order, err := p.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("plan journey: %w", err)
	}

	sme, receiver, err := p.resolveEndpoints(ctx, order)
	if err != nil {
		return nil, err
	}

	active, err := p.Warehouses.ListActiveWarehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan journey: list warehouses: %w", err)
	}

	hub := nearestWarehouse(active, sme.Coords, func(w *domain.Warehouse) bool {
		return w.Type == domain.WarehouseHub
	})
	if hub == nil {
		return nil, fmt.Errorf("plan journey: no active hub: %w", domain.ErrNoCoverage)
	}

	// Delivery warehouse must serve the receiver's area. Satellites and
	// local depots are preferred; the hub itself qualifies when it sits
	// in the area and nothing closer exists.
	delivery := nearestWarehouse(active, receiver, func(w *domain.Warehouse) bool {
		if w.AreaID != order.AreaID {
			return false
		}
		return w.Type == domain.WarehouseSatellite || w.Type == domain.WarehouseLocalDepot
	})
	if delivery == nil && hub.AreaID == order.AreaID {
		delivery = hub
	}
	if delivery == nil {
		return nil, fmt.Errorf("plan journey: area %s: %w", order.AreaID, domain.ErrNoCoverage)
	}

	return p.PlanJourneyWith(ctx, order, hub.WarehouseID, delivery.WarehouseID)
}

// PlanJourneyWith builds and persists the leg plan for an explicitly
// chosen hub and delivery warehouse (the dispatch console picks them by
// hand; PlanJourney picks them by proximity).
func (p *JourneyPlanner) PlanJourneyWith(
	ctx context.Context,
	order *domain.Order,
	hubID string,
	deliveryWarehouseID string,
) ([]*domain.JourneyLeg, error) {
	if order.Status != domain.OrderPending {
		return nil, &domain.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("order must be PENDING to plan a journey, got %s", order.Status),
		}
	}

	existing, err := p.Legs.ListLegsByOrder(ctx, order.OrderID)
	if err != nil {
		return nil, fmt.Errorf("plan journey: list legs: %w", err)
	}
	if len(existing) > 0 {
		return nil, &domain.ValidationError{
			Field:  "order_id",
			Reason: fmt.Sprintf("journey legs already exist for order %s", order.OrderID),
		}
	}

	sme, receiver, err := p.resolveEndpoints(ctx, order)
	if err != nil {
		return nil, err
	}

	hub, err := p.activeWarehouse(ctx, hubID)
	if err != nil {
		return nil, err
	}
	delivery := hub
	if deliveryWarehouseID != "" && deliveryWarehouseID != hubID {
		if delivery, err = p.activeWarehouse(ctx, deliveryWarehouseID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	legs := make([]*domain.JourneyLeg, 0, 3)

	if sme.Coords.HaversineKm(hub.Coords) > colocatedKm {
		legs = append(legs, &domain.JourneyLeg{
			OrderID:                order.OrderID,
			Type:                   domain.LegPickup,
			Status:                 domain.LegPending,
			OriginSMEID:            sme.SMEID,
			DestinationWarehouseID: hub.WarehouseID,
			EstimatedDistanceKm:    legDistanceKm(ctx, p.Distance, sme.Coords, hub.Coords),
			CreatedAt:              now,
			UpdatedAt:              now,
		})
	}

	if delivery.WarehouseID != hub.WarehouseID {
		legs = append(legs, &domain.JourneyLeg{
			OrderID:                order.OrderID,
			Type:                   domain.LegTransfer,
			Status:                 domain.LegPending,
			OriginWarehouseID:      hub.WarehouseID,
			DestinationWarehouseID: delivery.WarehouseID,
			EstimatedDistanceKm:    legDistanceKm(ctx, p.Distance, hub.Coords, delivery.Coords),
			CreatedAt:              now,
			UpdatedAt:              now,
		})
	}

	legs = append(legs, &domain.JourneyLeg{
		OrderID:               order.OrderID,
		Type:                  domain.LegDelivery,
		Status:                domain.LegPending,
		OriginWarehouseID:     delivery.WarehouseID,
		DestinationIsReceiver: true,
		EstimatedDistanceKm:   legDistanceKm(ctx, p.Distance, delivery.Coords, receiver),
		CreatedAt:             now,
		UpdatedAt:             now,
	})

	for i, l := range legs {
		l.Sequence = i + 1
	}

	if err := domain.ValidateChain(legs); err != nil {
		return nil, fmt.Errorf("plan journey: %w", err)
	}

	// All-or-nothing: a partially created leg set must never be observable.
	if err := p.Legs.CreateLegs(ctx, legs); err != nil {
		return nil, fmt.Errorf("plan journey: persist legs: %w", err)
	}

	return legs, nil
}

func (p *JourneyPlanner) resolveEndpoints(
	ctx context.Context,
	order *domain.Order,
) (*domain.SME, domain.Coordinates, error) {
	sme, err := p.SMEs.GetSME(ctx, order.SMEID)
	if err != nil {
		return nil, domain.Coordinates{}, fmt.Errorf("plan journey: %w", err)
	}
	if sme.Coords.IsZero() {
		return nil, domain.Coordinates{}, &domain.ValidationError{
			Field:  "sme",
			Reason: fmt.Sprintf("SME %s has no coordinates", sme.SMEID),
		}
	}

	receiver := order.Receiver.Coords
	if receiver.IsZero() && p.Geocoder != nil && order.Receiver.Address != "" {
		if coords, err := p.Geocoder.Resolve(ctx, order.Receiver.Address); err == nil {
			receiver = coords
		}
	}
	if receiver.IsZero() {
		return nil, domain.Coordinates{}, &domain.ValidationError{
			Field:  "receiver",
			Reason: "receiver coordinates could not be resolved",
		}
	}

	return sme, receiver, nil
}

func (p *JourneyPlanner) activeWarehouse(ctx context.Context, warehouseID string) (*domain.Warehouse, error) {
	wh, err := p.Warehouses.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("plan journey: %w", err)
	}
	if wh.Status != domain.WarehouseActive {
		return nil, fmt.Errorf("warehouse %s is %s: %w", wh.WarehouseID, wh.Status, domain.ErrWarehouseInactive)
	}
	return wh, nil
}

// nearestWarehouse returns the closest warehouse passing the filter,
// breaking distance ties by id for determinism.
func nearestWarehouse(
	warehouses []*domain.Warehouse,
	from domain.Coordinates,
	keep func(*domain.Warehouse) bool,
) *domain.Warehouse {
	var best *domain.Warehouse
	bestKm := 0.0
	for _, w := range warehouses {
		if !keep(w) || w.Coords.IsZero() {
			continue
		}
		km := from.HaversineKm(w.Coords)
		if best == nil || km < bestKm || (km == bestKm && w.WarehouseID < best.WarehouseID) {
			best = w
			bestKm = km
		}
	}
	return best
}
