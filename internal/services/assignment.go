package services

import (
	"context"
	"fmt"
	"time"

	"dispatch-service/internal/domain"
	"dispatch-service/internal/ports"

	"go.uber.org/zap"
)

// AssignmentEngine binds shippers and warehouses to journey legs and
// propagates the resulting state transitions.
//
// Every mutation is a single compare-and-swap on the leg's version:
// eligibility check, field update and distance recomputation apply as
// one unit, and a concurrent writer surfaces as domain.ErrConflict
// instead of being silently overwritten.
type AssignmentEngine struct {
	Orders     ports.OrderRepository
	Legs       ports.LegRepository
	Shippers   ports.ShipperRepository
	Warehouses ports.WarehouseRepository
	SMEs       ports.SMERepository
	Distance   ports.DistanceProvider
	Publisher  ports.EventPublisher

	// MaxActiveLegs caps concurrent non-terminal legs per shipper.
	// 0 leaves capacity unbounded (shippers batch multiple parcels).
	MaxActiveLegs int
}

// LegUpdate is a partial update applied to one leg. Nil fields are left
// untouched. Validated at the boundary before any state changes.
type LegUpdate struct {
	ShipperID              *string
	OriginWarehouseID      *string
	DestinationWarehouseID *string
	Status                 *domain.LegStatus
	EstimatedDistanceKm    *float64
}

// AssignLeg binds a shipper (and, for non-delivery legs, a destination
// warehouse) to the leg. Re-assignment of an already-assigned leg is
// allowed; legs that have progressed past PENDING keep their shipper.
func (e *AssignmentEngine) AssignLeg(
	ctx context.Context,
	legID int64,
	shipperID string,
	warehouseID string,
) (*domain.JourneyLeg, error) {
	leg, err := e.Legs.GetLeg(ctx, legID)
	if err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}
	if leg.Status == domain.LegCompleted || leg.Status == domain.LegCancelled {
		return nil, &domain.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("cannot assign a %s leg", leg.Status),
		}
	}

	order, err := e.Orders.GetOrder(ctx, leg.OrderID)
	if err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}

	if err := e.checkPredecessorAssigned(ctx, leg); err != nil {
		return nil, err
	}

	shipper, err := e.eligibleShipper(ctx, leg, order, shipperID)
	if err != nil {
		return nil, err
	}

	warehouseChanged := false
	if warehouseID != "" {
		if leg.Type == domain.LegDelivery {
			return nil, &domain.ValidationError{
				Field:  "warehouse_id",
				Reason: "delivery legs end at the receiver, not a warehouse",
			}
		}
		if warehouseID != leg.DestinationWarehouseID {
			leg.DestinationWarehouseID = warehouseID
			warehouseChanged = true
		}
	}

	// Non-delivery legs always need an ACTIVE destination warehouse,
	// whether it came from this call or from the plan.
	if leg.Type != domain.LegDelivery {
		if leg.DestinationWarehouseID == "" {
			return nil, &domain.ValidationError{
				Field:  "warehouse_id",
				Reason: "destination warehouse is required for " + string(leg.Type) + " legs",
			}
		}
		if _, err := e.activeWarehouse(ctx, leg.DestinationWarehouseID); err != nil {
			return nil, err
		}
	}

	if warehouseChanged {
		if err := e.recomputeDistance(ctx, leg, order); err != nil {
			return nil, err
		}
	}

	expected := leg.Version
	leg.AssignedShipperID = shipper.ShipperID
	leg.UpdatedAt = time.Now().UTC()

	if err := e.Legs.UpdateLeg(ctx, leg, expected); err != nil {
		return nil, fmt.Errorf("assign leg %d: %w", legID, err)
	}

	e.emit(ctx, domain.LegAssigned{
		OrderID:   leg.OrderID,
		LegID:     leg.LegID,
		Sequence:  leg.Sequence,
		LegType:   leg.Type,
		ShipperID: shipper.ShipperID,
		At:        leg.UpdatedAt,
	})

	return leg, nil
}

// UpdateLeg applies a partial update: shipper re-assignment, warehouse
// moves (with distance recomputation), status transitions, and manual
// distance overrides.
func (e *AssignmentEngine) UpdateLeg(
	ctx context.Context,
	legID int64,
	upd LegUpdate,
) (*domain.JourneyLeg, error) {
	leg, err := e.Legs.GetLeg(ctx, legID)
	if err != nil {
		return nil, fmt.Errorf("update leg: %w", err)
	}
	if leg.Status == domain.LegCompleted && upd.Status == nil {
		return nil, &domain.ValidationError{
			Field:  "status",
			Reason: "cannot update a completed leg",
		}
	}

	order, err := e.Orders.GetOrder(ctx, leg.OrderID)
	if err != nil {
		return nil, fmt.Errorf("update leg: %w", err)
	}

	expected := leg.Version
	warehouseChanged := false

	if upd.ShipperID != nil && *upd.ShipperID != "" {
		if err := e.checkPredecessorAssigned(ctx, leg); err != nil {
			return nil, err
		}
		shipper, err := e.eligibleShipper(ctx, leg, order, *upd.ShipperID)
		if err != nil {
			return nil, err
		}
		leg.AssignedShipperID = shipper.ShipperID
	}

	if upd.OriginWarehouseID != nil && *upd.OriginWarehouseID != leg.OriginWarehouseID {
		if leg.Type == domain.LegPickup {
			return nil, &domain.ValidationError{
				Field:  "origin_warehouse_id",
				Reason: "pickup legs originate at an SME",
			}
		}
		if _, err := e.activeWarehouse(ctx, *upd.OriginWarehouseID); err != nil {
			return nil, err
		}
		leg.OriginWarehouseID = *upd.OriginWarehouseID
		warehouseChanged = true
	}

	if upd.DestinationWarehouseID != nil && *upd.DestinationWarehouseID != leg.DestinationWarehouseID {
		if leg.Type == domain.LegDelivery {
			return nil, &domain.ValidationError{
				Field:  "destination_warehouse_id",
				Reason: "delivery legs end at the receiver, not a warehouse",
			}
		}
		if _, err := e.activeWarehouse(ctx, *upd.DestinationWarehouseID); err != nil {
			return nil, err
		}
		leg.DestinationWarehouseID = *upd.DestinationWarehouseID
		warehouseChanged = true
	}

	var completed bool
	if upd.Status != nil && *upd.Status != leg.Status {
		if err := e.applyStatus(ctx, leg, *upd.Status); err != nil {
			return nil, err
		}
		completed = leg.Status == domain.LegCompleted
	}

	if warehouseChanged {
		if err := e.recomputeDistance(ctx, leg, order); err != nil {
			return nil, err
		}
	}

	if upd.EstimatedDistanceKm != nil {
		if *upd.EstimatedDistanceKm < 0 {
			return nil, &domain.ValidationError{
				Field:  "estimated_distance",
				Reason: "must be non-negative",
			}
		}
		leg.EstimatedDistanceKm = roundKm(*upd.EstimatedDistanceKm)
	}

	leg.UpdatedAt = time.Now().UTC()
	if err := e.Legs.UpdateLeg(ctx, leg, expected); err != nil {
		return nil, fmt.Errorf("update leg %d: %w", legID, err)
	}

	if upd.ShipperID != nil && *upd.ShipperID != "" {
		e.emit(ctx, domain.LegAssigned{
			OrderID:   leg.OrderID,
			LegID:     leg.LegID,
			Sequence:  leg.Sequence,
			LegType:   leg.Type,
			ShipperID: leg.AssignedShipperID,
			At:        leg.UpdatedAt,
		})
	}

	if completed {
		e.emit(ctx, domain.LegCompletedEvent{
			OrderID:  leg.OrderID,
			LegID:    leg.LegID,
			Sequence: leg.Sequence,
			LegType:  leg.Type,
			At:       leg.UpdatedAt,
		})
	}

	if upd.Status != nil {
		if _, err := e.RecomputeOrderStatus(ctx, order); err != nil {
			return nil, err
		}
	}

	return leg, nil
}

// DeleteLeg removes a leg that has not been assigned or started.
func (e *AssignmentEngine) DeleteLeg(ctx context.Context, legID int64) error {
	leg, err := e.Legs.GetLeg(ctx, legID)
	if err != nil {
		return fmt.Errorf("delete leg: %w", err)
	}
	if leg.Status != domain.LegPending || leg.Assigned() {
		return &domain.ValidationError{
			Field:  "status",
			Reason: "only unassigned PENDING legs can be deleted",
		}
	}
	if err := e.Legs.DeleteLeg(ctx, legID); err != nil {
		return fmt.Errorf("delete leg %d: %w", legID, err)
	}
	return nil
}

// CancelOrder cancels the order and all of its non-completed legs.
// An order whose final DELIVERY leg is COMPLETED cannot be cancelled.
func (e *AssignmentEngine) CancelOrder(ctx context.Context, orderID string) error {
	order, err := e.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if order.Status == domain.OrderCancelled {
		return nil
	}

	legs, err := e.Legs.ListLegsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	if !domain.CanCancel(legs) {
		return &domain.ValidationError{
			Field:  "status",
			Reason: "order has been delivered and can no longer be cancelled",
		}
	}

	for _, l := range legs {
		if l.Status == domain.LegCompleted || l.Status == domain.LegCancelled {
			continue
		}
		expected := l.Version
		l.Status = domain.LegCancelled
		l.UpdatedAt = time.Now().UTC()
		if err := e.Legs.UpdateLeg(ctx, l, expected); err != nil {
			return fmt.Errorf("cancel order %s: leg %d: %w", orderID, l.LegID, err)
		}
	}

	if err := e.Orders.UpdateOrderStatus(ctx, orderID, domain.OrderCancelled); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	return nil
}

// RecomputeOrderStatus derives and persists the order's status from its
// legs. Emits OrderCompleted on the transition into COMPLETED.
func (e *AssignmentEngine) RecomputeOrderStatus(
	ctx context.Context,
	order *domain.Order,
) (domain.OrderStatus, error) {
	if order.Status == domain.OrderCancelled {
		return order.Status, nil
	}

	legs, err := e.Legs.ListLegsByOrder(ctx, order.OrderID)
	if err != nil {
		return "", fmt.Errorf("recompute order status: %w", err)
	}

	derived := domain.DeriveOrderStatus(legs)
	if derived == order.Status {
		return derived, nil
	}

	if err := e.Orders.UpdateOrderStatus(ctx, order.OrderID, derived); err != nil {
		return "", fmt.Errorf("recompute order status: %w", err)
	}

	if derived == domain.OrderCompleted {
		e.emit(ctx, domain.OrderCompletedEvent{
			OrderID: order.OrderID,
			Code:    order.Code,
			At:      time.Now().UTC(),
		})
	}

	order.Status = derived
	return derived, nil
}

// legAreaID returns the area that constrains shipper eligibility for the
// leg: transfers are keyed by the origin warehouse's area, pickup and
// delivery by the order's area.
func (e *AssignmentEngine) legAreaID(
	ctx context.Context,
	leg *domain.JourneyLeg,
	order *domain.Order,
) (string, error) {
	if leg.Type != domain.LegTransfer {
		return order.AreaID, nil
	}
	wh, err := e.Warehouses.GetWarehouse(ctx, leg.OriginWarehouseID)
	if err != nil {
		return "", fmt.Errorf("resolve leg area: %w", err)
	}
	return wh.AreaID, nil
}

// eligibleShipper loads the shipper and evaluates eligibility fresh:
// status, area membership, vehicle rule and the active-leg cap.
func (e *AssignmentEngine) eligibleShipper(
	ctx context.Context,
	leg *domain.JourneyLeg,
	order *domain.Order,
	shipperID string,
) (*domain.Shipper, error) {
	shipper, err := e.Shippers.GetShipper(ctx, shipperID)
	if err != nil {
		return nil, fmt.Errorf("assign leg: %w", err)
	}

	areaID, err := e.legAreaID(ctx, leg, order)
	if err != nil {
		return nil, err
	}
	if err := shipper.EligibleFor(leg.Type, areaID); err != nil {
		return nil, err
	}

	if e.MaxActiveLegs > 0 && shipper.ShipperID != leg.AssignedShipperID {
		active, err := e.Legs.CountActiveByShipper(ctx, shipperID)
		if err != nil {
			return nil, fmt.Errorf("assign leg: count active legs: %w", err)
		}
		if active >= e.MaxActiveLegs {
			return nil, fmt.Errorf("shipper %s already carries %d active legs: %w",
				shipperID, active, domain.ErrNoEligibleShipper)
		}
	}

	return shipper, nil
}

// checkPredecessorAssigned enforces pipeline ordering: a leg opens for
// assignment only once its immediate predecessor has a shipper.
func (e *AssignmentEngine) checkPredecessorAssigned(ctx context.Context, leg *domain.JourneyLeg) error {
	if leg.Sequence <= 1 {
		return nil
	}
	pred, err := e.predecessor(ctx, leg)
	if err != nil {
		return err
	}
	if pred != nil && !pred.Assigned() {
		return fmt.Errorf("leg %d follows unassigned leg %d: %w",
			leg.Sequence, pred.Sequence, domain.ErrPrecedentNotAssigned)
	}
	return nil
}

func (e *AssignmentEngine) predecessor(ctx context.Context, leg *domain.JourneyLeg) (*domain.JourneyLeg, error) {
	legs, err := e.Legs.ListLegsByOrder(ctx, leg.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load predecessor: %w", err)
	}
	for _, l := range legs {
		if l.Sequence == leg.Sequence-1 {
			return l, nil
		}
	}
	return nil, nil
}

// applyStatus validates and applies a leg status transition. Assignment
// unlocks a leg's fields, but progress additionally requires temporal
// precedence: the predecessor must be COMPLETED before this leg starts.
func (e *AssignmentEngine) applyStatus(
	ctx context.Context,
	leg *domain.JourneyLeg,
	next domain.LegStatus,
) error {
	now := time.Now().UTC()

	switch next {
	case domain.LegInProgress:
		if leg.Status != domain.LegPending {
			return &domain.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("cannot start a %s leg", leg.Status),
			}
		}
		if !leg.Assigned() {
			return &domain.ValidationError{
				Field:  "status",
				Reason: "cannot start a leg without an assigned shipper",
			}
		}
		pred, err := e.predecessor(ctx, leg)
		if err != nil {
			return err
		}
		if pred != nil && pred.Status != domain.LegCompleted && pred.Status != domain.LegCancelled {
			return &domain.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("leg %d cannot start before leg %d completes", leg.Sequence, pred.Sequence),
			}
		}
		leg.Status = domain.LegInProgress
		leg.StartedAt = &now
	case domain.LegCompleted:
		if leg.Status != domain.LegInProgress {
			return &domain.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("cannot complete a %s leg", leg.Status),
			}
		}
		leg.Status = domain.LegCompleted
		leg.CompletedAt = &now
	case domain.LegCancelled:
		if leg.Status == domain.LegCompleted {
			return &domain.ValidationError{
				Field:  "status",
				Reason: "cannot cancel a completed leg",
			}
		}
		leg.Status = domain.LegCancelled
	default:
		return &domain.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("unknown leg status %q", next),
		}
	}

	return nil
}

// recomputeDistance refreshes the leg's estimate after a warehouse move.
func (e *AssignmentEngine) recomputeDistance(
	ctx context.Context,
	leg *domain.JourneyLeg,
	order *domain.Order,
) error {
	var origin, dest domain.Coordinates

	switch {
	case leg.OriginSMEID != "":
		sme, err := e.SMEs.GetSME(ctx, leg.OriginSMEID)
		if err != nil {
			return fmt.Errorf("recompute distance: %w", err)
		}
		origin = sme.Coords
	case leg.OriginWarehouseID != "":
		wh, err := e.Warehouses.GetWarehouse(ctx, leg.OriginWarehouseID)
		if err != nil {
			return fmt.Errorf("recompute distance: %w", err)
		}
		origin = wh.Coords
	}

	switch {
	case leg.DestinationIsReceiver:
		dest = order.Receiver.Coords
	case leg.DestinationWarehouseID != "":
		wh, err := e.Warehouses.GetWarehouse(ctx, leg.DestinationWarehouseID)
		if err != nil {
			return fmt.Errorf("recompute distance: %w", err)
		}
		dest = wh.Coords
	}

	// Keep the previous estimate when either endpoint is unlocated.
	if origin.IsZero() || dest.IsZero() {
		return nil
	}

	leg.EstimatedDistanceKm = legDistanceKm(ctx, e.Distance, origin, dest)
	return nil
}

func (e *AssignmentEngine) activeWarehouse(ctx context.Context, warehouseID string) (*domain.Warehouse, error) {
	wh, err := e.Warehouses.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("load warehouse: %w", err)
	}
	if wh.Status != domain.WarehouseActive {
		return nil, fmt.Errorf("warehouse %s is %s: %w", wh.WarehouseID, wh.Status, domain.ErrWarehouseInactive)
	}
	return wh, nil
}

func (e *AssignmentEngine) emit(ctx context.Context, event domain.Event) {
	if e.Publisher == nil {
		return
	}
	if err := e.Publisher.Publish(ctx, event); err != nil {
		zap.L().Warn("event publish failed",
			zap.String("event", event.EventName()),
			zap.String("key", event.Key()),
			zap.Error(err))
	}
}
