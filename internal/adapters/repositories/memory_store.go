package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dispatch-service/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory implementation of every
// repository port. It backs the unit tests and the dev seed path of
// dbtool; production traffic goes through the Postgres repositories.
type MemoryStore struct {
	mu sync.RWMutex

	orders     map[string]*domain.Order
	legs       map[int64]*domain.JourneyLeg
	shippers   map[string]*domain.Shipper
	warehouses map[string]*domain.Warehouse
	smes       map[string]*domain.SME
	areas      map[string]*domain.Area

	nextLegID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:     make(map[string]*domain.Order),
		legs:       make(map[int64]*domain.JourneyLeg),
		shippers:   make(map[string]*domain.Shipper),
		warehouses: make(map[string]*domain.Warehouse),
		smes:       make(map[string]*domain.SME),
		areas:      make(map[string]*domain.Area),
		nextLegID:  1,
	}
}

// Seed helpers. Each stores a copy so callers cannot mutate the store
// through retained pointers.

func (m *MemoryStore) PutOrder(o *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.OrderID] = &cp
}

func (m *MemoryStore) PutShipper(s *domain.Shipper) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.shippers[s.ShipperID] = &cp
}

func (m *MemoryStore) PutWarehouse(w *domain.Warehouse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *w
	m.warehouses[w.WarehouseID] = &cp
}

func (m *MemoryStore) PutSME(s *domain.SME) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.smes[s.SMEID] = &cp
}

func (m *MemoryStore) PutArea(a *domain.Area) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.areas[a.AreaID] = &cp
}

// OrderRepository

func (m *MemoryStore) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "order", ID: orderID}
	}
	cp := *o
	return &cp, nil
}

func (m *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.OrderID]; ok {
		return fmt.Errorf("order %s already exists", order.OrderID)
	}
	cp := *order
	m.orders[order.OrderID] = &cp
	return nil
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return &domain.NotFoundError{Kind: "order", ID: orderID}
	}
	o.Status = status
	return nil
}

func (m *MemoryStore) ListOrdersByStatus(_ context.Context, statuses []domain.OrderStatus) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[domain.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*domain.Order
	for _, o := range m.orders {
		if want[o.Status] {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

// LegRepository

func (m *MemoryStore) GetLeg(_ context.Context, legID int64) (*domain.JourneyLeg, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.legs[legID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "leg", ID: fmt.Sprint(legID)}
	}
	cp := *l
	return &cp, nil
}

func (m *MemoryStore) ListLegsByOrder(_ context.Context, orderID string) ([]*domain.JourneyLeg, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.JourneyLeg
	for _, l := range m.legs {
		if l.OrderID == orderID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *MemoryStore) CreateLegs(_ context.Context, legs []*domain.JourneyLeg) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, leg := range legs {
		leg.LegID = m.nextLegID
		m.nextLegID++
		if leg.Version == 0 {
			leg.Version = 1
		}
		cp := *leg
		m.legs[leg.LegID] = &cp
	}
	return nil
}

func (m *MemoryStore) UpdateLeg(_ context.Context, leg *domain.JourneyLeg, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.legs[leg.LegID]
	if !ok {
		return &domain.NotFoundError{Kind: "leg", ID: fmt.Sprint(leg.LegID)}
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("leg %d version %d, expected %d: %w",
			leg.LegID, current.Version, expectedVersion, domain.ErrConflict)
	}
	cp := *leg
	cp.Version = expectedVersion + 1
	m.legs[leg.LegID] = &cp
	leg.Version = cp.Version
	return nil
}

func (m *MemoryStore) DeleteLeg(_ context.Context, legID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.legs[legID]; !ok {
		return &domain.NotFoundError{Kind: "leg", ID: fmt.Sprint(legID)}
	}
	delete(m.legs, legID)
	return nil
}

func (m *MemoryStore) ListUnassignedLegs(_ context.Context, areaID string) ([]*domain.JourneyLeg, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.JourneyLeg
	for _, l := range m.legs {
		if l.Status != domain.LegPending || l.Assigned() {
			continue
		}
		if areaID != "" {
			order, ok := m.orders[l.OrderID]
			if !ok || order.AreaID != areaID {
				continue
			}
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderID != out[j].OrderID {
			return out[i].OrderID < out[j].OrderID
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (m *MemoryStore) ListLegsWithDestination(_ context.Context) ([]*domain.JourneyLeg, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.JourneyLeg
	for _, l := range m.legs {
		if l.DestinationWarehouseID == "" || l.Status == domain.LegCancelled {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LegID < out[j].LegID })
	return out, nil
}

func (m *MemoryStore) CountActiveByShipper(_ context.Context, shipperID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, l := range m.legs {
		if l.AssignedShipperID != shipperID {
			continue
		}
		if l.Status == domain.LegCompleted || l.Status == domain.LegCancelled {
			continue
		}
		count++
	}
	return count, nil
}

// ShipperRepository

func (m *MemoryStore) GetShipper(_ context.Context, shipperID string) (*domain.Shipper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shippers[shipperID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "shipper", ID: shipperID}
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListShippersByArea(_ context.Context, areaID string) ([]*domain.Shipper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Shipper
	for _, s := range m.shippers {
		if s.AreaID == areaID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShipperID < out[j].ShipperID })
	return out, nil
}

// WarehouseRepository

func (m *MemoryStore) GetWarehouse(_ context.Context, warehouseID string) (*domain.Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.warehouses[warehouseID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "warehouse", ID: warehouseID}
	}
	cp := *w
	return &cp, nil
}

func (m *MemoryStore) ListWarehouses(_ context.Context) ([]*domain.Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Warehouse
	for _, w := range m.warehouses {
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (m *MemoryStore) ListActiveWarehouses(_ context.Context) ([]*domain.Warehouse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Warehouse
	for _, w := range m.warehouses {
		if w.Status == domain.WarehouseActive {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (m *MemoryStore) SetCurrentLoad(_ context.Context, warehouseID string, load int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.warehouses[warehouseID]
	if !ok {
		return &domain.NotFoundError{Kind: "warehouse", ID: warehouseID}
	}
	w.CurrentLoad = load
	return nil
}

// SMERepository

func (m *MemoryStore) GetSME(_ context.Context, smeID string) (*domain.SME, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.smes[smeID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "sme", ID: smeID}
	}
	cp := *s
	return &cp, nil
}

// AreaRepository

func (m *MemoryStore) GetArea(_ context.Context, areaID string) (*domain.Area, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.areas[areaID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "area", ID: areaID}
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryStore) ListAreas(_ context.Context) ([]*domain.Area, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Area
	for _, a := range m.areas {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AreaID < out[j].AreaID })
	return out, nil
}
