package services

import (
	"context"
	"errors"
	"testing"

	"dispatch-service/internal/domain"
)

func newOptimizer(f *fixture) *BatchOptimizer {
	return &BatchOptimizer{
		Engine:     f.engine,
		Legs:       f.store,
		Areas:      f.store,
		Shippers:   f.store,
		Warehouses: f.store,
	}
}

func TestAutoPilotAssignsFullJourney(t *testing.T) {
	f := newFixture(t)
	f.planOrder(t, "ord-auto")
	opt := newOptimizer(f)

	report, err := opt.RunAutoPilot(context.Background(), "area-1")
	if err != nil {
		t.Fatal(err)
	}
	if report.ProcessedCount != 3 {
		t.Fatalf("processed = %d, want 3 (skips: %v)", report.ProcessedCount, report.Skipped)
	}
	if report.Status != "completed" {
		t.Errorf("status = %s", report.Status)
	}

	legs, _ := f.store.ListLegsByOrder(context.Background(), "ord-auto")
	for _, l := range legs {
		if !l.Assigned() {
			t.Errorf("leg %d left unassigned", l.Sequence)
		}
	}

	// Pickup and delivery go to the top-rated shipper; the transfer needs
	// a truck or van, so the motorbike leader is passed over.
	if legs[0].AssignedShipperID != "ship-bike" {
		t.Errorf("pickup shipper = %s, want ship-bike", legs[0].AssignedShipperID)
	}
	if legs[1].AssignedShipperID != "ship-van" {
		t.Errorf("transfer shipper = %s, want ship-van", legs[1].AssignedShipperID)
	}
}

func TestAutoPilotSkipsWithoutAborting(t *testing.T) {
	f := newFixture(t)
	f.planOrder(t, "ord-auto-ok")

	// A second area with demand but no couriers.
	f.store.PutWarehouse(&domain.Warehouse{
		WarehouseID: "wh-d9", Name: "D9 Depot", Type: domain.WarehouseSatellite,
		AreaID: "area-2", Status: domain.WarehouseActive,
		Coords: domain.Coordinates{Lat: 10.8400, Lon: 106.8000},
	})
	f.newOrderInArea(t, "ord-auto-dry", "area-2")
	if _, err := f.planner.PlanJourney(context.Background(), "ord-auto-dry"); err != nil {
		t.Fatal(err)
	}

	report, err := newOptimizer(f).RunAutoPilot(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if report.ProcessedCount < 3 {
		t.Errorf("covered area should still be fully assigned, processed = %d", report.ProcessedCount)
	}
	if len(report.Skipped) == 0 {
		t.Fatal("expected skips for the shipperless area")
	}
	for _, s := range report.Skipped {
		if s.Reason == "" {
			t.Errorf("skip for leg %d has no reason", s.LegID)
		}
	}
}

func TestAutoPilotIdempotent(t *testing.T) {
	f := newFixture(t)
	f.planOrder(t, "ord-auto-twice")
	opt := newOptimizer(f)
	ctx := context.Background()

	first, err := opt.RunAutoPilot(ctx, "area-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := opt.RunAutoPilot(ctx, "area-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.ProcessedCount != 3 || second.ProcessedCount != 0 {
		t.Errorf("processed = %d then %d, want 3 then 0", first.ProcessedCount, second.ProcessedCount)
	}
	if len(second.Skipped) != 0 {
		t.Errorf("second run skipped %d legs, want 0", len(second.Skipped))
	}
}

func TestAutoPilotUnknownArea(t *testing.T) {
	f := newFixture(t)
	_, err := newOptimizer(f).RunAutoPilot(context.Background(), "area-nope")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAutoPilotRespectsCap(t *testing.T) {
	f := newFixture(t)
	f.engine.MaxActiveLegs = 2
	f.planOrder(t, "ord-cap-1")
	f.planOrder(t, "ord-cap-2")

	report, err := newOptimizer(f).RunAutoPilot(context.Background(), "area-1")
	if err != nil {
		t.Fatal(err)
	}

	// Six legs, three shippers, two slots each: everything still fits,
	// but no shipper may exceed the cap.
	if report.ProcessedCount != 6 {
		t.Fatalf("processed = %d, want 6 (skips: %v)", report.ProcessedCount, report.Skipped)
	}
	ctx := context.Background()
	for _, id := range []string{"ship-bike", "ship-van", "ship-truck"} {
		active, err := f.store.CountActiveByShipper(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if active > 2 {
			t.Errorf("shipper %s carries %d active legs, cap is 2", id, active)
		}
	}
}
