package ports

import (
	"context"

	"dispatch-service/internal/domain"
)

// Repository ports for the dispatch registries. The assignment engine
// and batch optimizer receive these explicitly instead of reaching into
// module-level shared state.

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	// UpdateOrderStatus persists a derived status transition.
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
	ListOrdersByStatus(ctx context.Context, statuses []domain.OrderStatus) ([]*domain.Order, error)
}

type LegRepository interface {
	GetLeg(ctx context.Context, legID int64) (*domain.JourneyLeg, error)
	// ListLegsByOrder returns the order's legs sorted by sequence.
	ListLegsByOrder(ctx context.Context, orderID string) ([]*domain.JourneyLeg, error)
	// CreateLegs persists a full leg plan atomically: a partially created
	// leg set must never be observable.
	CreateLegs(ctx context.Context, legs []*domain.JourneyLeg) error
	// UpdateLeg writes the leg if its stored version still equals
	// expectedVersion, bumping the version. A stale expectedVersion
	// yields domain.ErrConflict.
	UpdateLeg(ctx context.Context, leg *domain.JourneyLeg, expectedVersion int) error
	// DeleteLeg removes a leg; callers enforce the PENDING+unassigned rule.
	DeleteLeg(ctx context.Context, legID int64) error
	// ListUnassignedLegs returns PENDING legs with no shipper, optionally
	// restricted to orders in one area.
	ListUnassignedLegs(ctx context.Context, areaID string) ([]*domain.JourneyLeg, error)
	// ListLegsWithDestination returns all non-cancelled legs bound for
	// any warehouse, for usage recomputation.
	ListLegsWithDestination(ctx context.Context) ([]*domain.JourneyLeg, error)
	// CountActiveByShipper counts legs assigned to the shipper that are
	// not yet COMPLETED or CANCELLED.
	CountActiveByShipper(ctx context.Context, shipperID string) (int, error)
}

type ShipperRepository interface {
	GetShipper(ctx context.Context, shipperID string) (*domain.Shipper, error)
	// ListShippersByArea returns shippers registered to the area,
	// regardless of status; eligibility is the engine's concern.
	ListShippersByArea(ctx context.Context, areaID string) ([]*domain.Shipper, error)
}

type WarehouseRepository interface {
	GetWarehouse(ctx context.Context, warehouseID string) (*domain.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]*domain.Warehouse, error)
	ListActiveWarehouses(ctx context.Context) ([]*domain.Warehouse, error)
	// SetCurrentLoad overwrites the derived load counter.
	SetCurrentLoad(ctx context.Context, warehouseID string, load int) error
}

type SMERepository interface {
	GetSME(ctx context.Context, smeID string) (*domain.SME, error)
}

type AreaRepository interface {
	GetArea(ctx context.Context, areaID string) (*domain.Area, error)
	ListAreas(ctx context.Context) ([]*domain.Area, error)
}
