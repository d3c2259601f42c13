package services

import (
	"context"
	"errors"
	"testing"

	"dispatch-service/internal/domain"
)

func TestPlanJourneyThreeLegs(t *testing.T) {
	f := newFixture(t)
	legs := f.planOrder(t, "ord-1")

	if len(legs) != 3 {
		t.Fatalf("expected 3 legs, got %d", len(legs))
	}

	wantTypes := []domain.LegType{domain.LegPickup, domain.LegTransfer, domain.LegDelivery}
	for i, leg := range legs {
		if leg.Type != wantTypes[i] {
			t.Errorf("leg %d: type = %s, want %s", i, leg.Type, wantTypes[i])
		}
		if leg.Sequence != i+1 {
			t.Errorf("leg %d: sequence = %d, want %d", i, leg.Sequence, i+1)
		}
		if leg.Status != domain.LegPending {
			t.Errorf("leg %d: status = %s, want PENDING", i, leg.Status)
		}
		if leg.Assigned() {
			t.Errorf("leg %d: planned leg must start unassigned", i)
		}
		if leg.EstimatedDistanceKm != 7.5 {
			t.Errorf("leg %d: distance = %v, want 7.5", i, leg.EstimatedDistanceKm)
		}
	}

	if legs[0].OriginSMEID != "sme-1" || legs[0].DestinationWarehouseID != "wh-hub" {
		t.Errorf("pickup route = %s -> %s", legs[0].OriginSMEID, legs[0].DestinationWarehouseID)
	}
	if legs[1].OriginWarehouseID != "wh-hub" || legs[1].DestinationWarehouseID != "wh-sat" {
		t.Errorf("transfer route = %s -> %s", legs[1].OriginWarehouseID, legs[1].DestinationWarehouseID)
	}
	if legs[2].OriginWarehouseID != "wh-sat" || !legs[2].DestinationIsReceiver {
		t.Errorf("delivery route = %s -> receiver=%v", legs[2].OriginWarehouseID, legs[2].DestinationIsReceiver)
	}
}

func TestPlanJourneySkipsPickupWhenColocated(t *testing.T) {
	f := newFixture(t)
	// Sender parked at the hub's doorstep.
	f.store.PutSME(&domain.SME{
		SMEID: "sme-1", Name: "Saigon Craft Co", AreaID: "area-1",
		Coords: domain.Coordinates{Lat: 10.8000, Lon: 106.7000},
	})

	legs := f.planOrder(t, "ord-colocated")
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}
	if legs[0].Type != domain.LegTransfer || legs[1].Type != domain.LegDelivery {
		t.Errorf("leg types = %s, %s", legs[0].Type, legs[1].Type)
	}
	if legs[0].Sequence != 1 || legs[1].Sequence != 2 {
		t.Errorf("sequences = %d, %d", legs[0].Sequence, legs[1].Sequence)
	}
}

func TestPlanJourneyHubHandlesDeliveryWhenNoSatellite(t *testing.T) {
	f := newFixture(t)
	// Only the hub remains active in the area.
	f.store.PutWarehouse(&domain.Warehouse{
		WarehouseID: "wh-sat", Name: "East Satellite", Type: domain.WarehouseSatellite,
		AreaID: "area-1", Status: domain.WarehouseMaintenance,
		Coords: domain.Coordinates{Lat: 10.7600, Lon: 106.6600},
	})

	legs := f.planOrder(t, "ord-hub-only")
	if len(legs) != 2 {
		t.Fatalf("expected pickup+delivery, got %d legs", len(legs))
	}
	if legs[0].Type != domain.LegPickup || legs[1].Type != domain.LegDelivery {
		t.Errorf("leg types = %s, %s", legs[0].Type, legs[1].Type)
	}
	if legs[1].OriginWarehouseID != "wh-hub" {
		t.Errorf("delivery origin = %s, want wh-hub", legs[1].OriginWarehouseID)
	}
}

func TestPlanJourneyNoCoverage(t *testing.T) {
	f := newFixture(t)
	// area-2 has no warehouses at all.
	f.newOrderInArea(t, "ord-area2", "area-2")

	_, err := f.planner.PlanJourney(context.Background(), "ord-area2")
	if !errors.Is(err, domain.ErrNoCoverage) {
		t.Fatalf("expected ErrNoCoverage, got %v", err)
	}

	legs, _ := f.store.ListLegsByOrder(context.Background(), "ord-area2")
	if len(legs) != 0 {
		t.Errorf("no legs should exist after a failed plan, got %d", len(legs))
	}
}

func TestPlanJourneyRejectsSecondPlan(t *testing.T) {
	f := newFixture(t)
	f.planOrder(t, "ord-replan")

	_, err := f.planner.PlanJourney(context.Background(), "ord-replan")
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPlanJourneyDistanceFallsBackToHaversine(t *testing.T) {
	f := newFixture(t)
	f.distance.err = errors.New("routing service down")

	legs := f.planOrder(t, "ord-fallback")
	for _, leg := range legs {
		if leg.EstimatedDistanceKm <= 0 {
			t.Errorf("leg %d: fallback distance = %v, want > 0", leg.Sequence, leg.EstimatedDistanceKm)
		}
	}
}
