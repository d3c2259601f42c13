package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"dispatch-service/internal/adapters/repositories"
	"dispatch-service/internal/domain"
	"dispatch-service/internal/ports"
)

// fixture wires the services under test against a seeded memory store:
// one covered area with a hub, a satellite and three shippers, plus an
// uncovered second area.
type fixture struct {
	store     *repositories.MemoryStore
	distance  *fixedDistance
	publisher *capturePublisher
	planner   *JourneyPlanner
	engine    *AssignmentEngine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repositories.NewMemoryStore()
	store.PutArea(&domain.Area{AreaID: "area-1", Name: "District 1", Status: domain.AreaActive})
	store.PutArea(&domain.Area{AreaID: "area-2", Name: "District 9", Status: domain.AreaActive})

	store.PutWarehouse(&domain.Warehouse{
		WarehouseID: "wh-hub", Name: "Central Hub", Type: domain.WarehouseHub,
		AreaID: "area-1", Status: domain.WarehouseActive,
		Coords: domain.Coordinates{Lat: 10.8000, Lon: 106.7000},
	})
	store.PutWarehouse(&domain.Warehouse{
		WarehouseID: "wh-sat", Name: "East Satellite", Type: domain.WarehouseSatellite,
		AreaID: "area-1", Status: domain.WarehouseActive,
		Coords: domain.Coordinates{Lat: 10.7600, Lon: 106.6600},
	})
	store.PutWarehouse(&domain.Warehouse{
		WarehouseID: "wh-off", Name: "Closed Depot", Type: domain.WarehouseSatellite,
		AreaID: "area-1", Status: domain.WarehouseInactive,
		Coords: domain.Coordinates{Lat: 10.7700, Lon: 106.6700},
	})

	store.PutSME(&domain.SME{
		SMEID: "sme-1", Name: "Saigon Craft Co", AreaID: "area-1",
		Coords: domain.Coordinates{Lat: 10.8200, Lon: 106.7200},
	})

	store.PutShipper(&domain.Shipper{
		ShipperID: "ship-bike", Name: "Binh", Vehicle: domain.VehicleMotorbike,
		AreaID: "area-1", Status: domain.ShipperActive, Rating: 4.9,
	})
	store.PutShipper(&domain.Shipper{
		ShipperID: "ship-van", Name: "Vy", Vehicle: domain.VehicleVan,
		AreaID: "area-1", Status: domain.ShipperActive, Rating: 4.8,
	})
	store.PutShipper(&domain.Shipper{
		ShipperID: "ship-truck", Name: "Tam", Vehicle: domain.VehicleTruck,
		AreaID: "area-1", Status: domain.ShipperActive, Rating: 4.5,
	})
	store.PutShipper(&domain.Shipper{
		ShipperID: "ship-idle", Name: "Ich", Vehicle: domain.VehicleVan,
		AreaID: "area-1", Status: domain.ShipperInactive, Rating: 5.0,
	})

	distance := &fixedDistance{km: 7.5}
	publisher := &capturePublisher{}

	planner := &JourneyPlanner{
		Orders:     store,
		Legs:       store,
		Warehouses: store,
		SMEs:       store,
		Distance:   distance,
	}
	engine := &AssignmentEngine{
		Orders:     store,
		Legs:       store,
		Shippers:   store,
		Warehouses: store,
		SMEs:       store,
		Distance:   distance,
		Publisher:  publisher,
	}

	return &fixture{
		store:     store,
		distance:  distance,
		publisher: publisher,
		planner:   planner,
		engine:    engine,
	}
}

// newOrder seeds a PENDING order in area-1 and returns it.
func (f *fixture) newOrder(t *testing.T, orderID string) *domain.Order {
	t.Helper()
	return f.newOrderInArea(t, orderID, "area-1")
}

func (f *fixture) newOrderInArea(t *testing.T, orderID, areaID string) *domain.Order {
	t.Helper()
	now := time.Now().UTC()
	order := &domain.Order{
		OrderID: orderID,
		Code:    "DSP-TEST-" + orderID,
		SMEID:   "sme-1",
		AreaID:  areaID,
		Receiver: domain.Receiver{
			Name:    "Lan Nguyen",
			Address: "12 Vo Van Kiet",
			Coords:  domain.Coordinates{Lat: 10.7500, Lon: 106.6500},
		},
		WeightKg:  3,
		Status:    domain.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.store.CreateOrder(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

// mustReplaceOrder overwrites a seeded order with edited fields.
func (f *fixture) mustReplaceOrder(t *testing.T, order *domain.Order) {
	t.Helper()
	f.store.PutOrder(order)
}

// planOrder seeds an order and plans its journey, returning the legs.
func (f *fixture) planOrder(t *testing.T, orderID string) []*domain.JourneyLeg {
	t.Helper()
	f.newOrder(t, orderID)
	legs, err := f.planner.PlanJourney(context.Background(), orderID)
	if err != nil {
		t.Fatalf("plan journey: %v", err)
	}
	return legs
}

// advance walks a leg through IN_PROGRESS to the target status.
func (f *fixture) advance(t *testing.T, legID int64, target domain.LegStatus) {
	t.Helper()
	ctx := context.Background()
	inProgress := domain.LegInProgress
	if _, err := f.engine.UpdateLeg(ctx, legID, LegUpdate{Status: &inProgress}); err != nil {
		t.Fatalf("start leg %d: %v", legID, err)
	}
	if target == domain.LegInProgress {
		return
	}
	if _, err := f.engine.UpdateLeg(ctx, legID, LegUpdate{Status: &target}); err != nil {
		t.Fatalf("move leg %d to %s: %v", legID, target, err)
	}
}

type fixedDistance struct {
	km   float64
	err  error
	hits int
}

func (d *fixedDistance) GetDistanceKm(_ context.Context, _, _ domain.Coordinates) (float64, error) {
	d.hits++
	if d.err != nil {
		return 0, d.err
	}
	return d.km, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) named(name string) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, e := range p.events {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type stubGeocoder struct {
	coords domain.Coordinates
	err    error
}

func (g *stubGeocoder) Autocomplete(_ context.Context, _ string) ([]ports.Suggestion, error) {
	return nil, nil
}

func (g *stubGeocoder) PlaceDetail(_ context.Context, _ string) (domain.Coordinates, error) {
	return g.coords, g.err
}

func (g *stubGeocoder) Resolve(_ context.Context, _ string) (domain.Coordinates, error) {
	return g.coords, g.err
}
