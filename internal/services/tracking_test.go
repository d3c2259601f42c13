package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch-service/internal/domain"
)

func newTracking(f *fixture) *TrackingService {
	return &TrackingService{Orders: f.store, Legs: f.store, Warehouses: f.store, Shippers: f.store}
}

func TestDispatchSummary(t *testing.T) {
	f := newFixture(t)
	tracking := newTracking(f)
	ctx := context.Background()

	f.planOrder(t, "ord-board-a")
	legsB := f.planOrder(t, "ord-board-b")
	if _, err := f.engine.AssignLeg(ctx, legsB[0].LegID, "ship-bike", ""); err != nil {
		t.Fatal(err)
	}
	f.advance(t, legsB[0].LegID, domain.LegInProgress)

	summary, err := tracking.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalOrders != 2 {
		t.Fatalf("board shows %d orders, want 2", summary.TotalOrders)
	}

	byID := map[string]DispatchEntry{}
	for _, e := range summary.Orders {
		byID[e.OrderID] = e
	}
	a, b := byID["ord-board-a"], byID["ord-board-b"]
	if a.LegsTotal != 3 || a.LegsCompleted != 0 {
		t.Errorf("order a legs = %d/%d", a.LegsCompleted, a.LegsTotal)
	}
	if a.TotalDistanceKm != 22.5 {
		t.Errorf("order a total distance = %v, want 22.5", a.TotalDistanceKm)
	}
	if b.Status != domain.OrderInTransit || b.CurrentLegType != domain.LegPickup {
		t.Errorf("order b status = %s, current leg = %s", b.Status, b.CurrentLegType)
	}
}

func TestDispatchSummaryPriority(t *testing.T) {
	f := newFixture(t)
	tracking := newTracking(f)
	ctx := context.Background()

	urgent := f.newOrder(t, "ord-z-urgent")
	urgent.Note = "URGENT: medical supplies"
	f.mustReplaceOrder(t, urgent)

	heavy := f.newOrder(t, "ord-heavy")
	heavy.WeightKg = 14
	f.mustReplaceOrder(t, heavy)

	light := f.newOrder(t, "ord-light")
	light.WeightKg = 0.5
	f.mustReplaceOrder(t, light)

	summary, err := tracking.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, e := range summary.Orders {
		got[e.OrderID] = e.Priority
	}
	want := map[string]string{"ord-z-urgent": "HIGH", "ord-heavy": "HIGH", "ord-light": "LOW"}
	for id, p := range want {
		if got[id] != p {
			t.Errorf("order %s priority = %s, want %s", id, got[id], p)
		}
	}

	// HIGH priority surfaces before LOW regardless of id order.
	if summary.Orders[len(summary.Orders)-1].OrderID != "ord-light" {
		t.Errorf("LOW priority order should sort last, got %s", summary.Orders[len(summary.Orders)-1].OrderID)
	}
}

func TestTrackOrderTimeline(t *testing.T) {
	f := newFixture(t)
	tracking := newTracking(f)
	ctx := context.Background()

	legs := f.planOrder(t, "ord-track")
	if _, err := f.engine.AssignLeg(ctx, legs[0].LegID, "ship-bike", ""); err != nil {
		t.Fatal(err)
	}
	f.advance(t, legs[0].LegID, domain.LegCompleted)

	got, err := tracking.Track(ctx, "ord-track")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Stops) != 3 {
		t.Fatalf("stops = %d, want 3", len(got.Stops))
	}
	if got.Status != domain.OrderAtWarehouse {
		t.Errorf("status = %s, want AT_WAREHOUSE", got.Status)
	}

	first := got.Stops[0]
	if first.Status != domain.LegCompleted || first.CompletedAt == nil {
		t.Errorf("first stop = %+v", first)
	}
	if first.Destination != "Central Hub" {
		t.Errorf("warehouse id not resolved to name: %q", first.Destination)
	}
	if got.Stops[2].Destination != "RECEIVER" {
		t.Errorf("final stop destination = %q", got.Stops[2].Destination)
	}
	if got.TotalDistanceKm != 22.5 {
		t.Errorf("total distance = %v, want 22.5", got.TotalDistanceKm)
	}
}

func TestTrackUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := newTracking(f).Track(context.Background(), "ord-missing")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPendingOrdersOldestFirst(t *testing.T) {
	f := newFixture(t)
	tracking := newTracking(f)

	older := f.newOrder(t, "ord-pend-b")
	newer := f.newOrder(t, "ord-pend-a")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	f.mustReplaceOrder(t, older)
	_ = newer

	pending, err := tracking.PendingOrders(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].OrderID != "ord-pend-b" {
		t.Errorf("oldest order should come first, got %s", pending[0].OrderID)
	}
}

func TestShippersByAreaRanking(t *testing.T) {
	f := newFixture(t)
	shippers, err := newTracking(f).ShippersByArea(context.Background(), "area-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(shippers) != 4 {
		t.Fatalf("shippers = %d, want 4", len(shippers))
	}
	if shippers[0].ShipperID != "ship-bike" {
		t.Errorf("top shipper = %s, want highest-rated active ship-bike", shippers[0].ShipperID)
	}
	if shippers[len(shippers)-1].ShipperID != "ship-idle" {
		t.Errorf("inactive shipper should sort last, got %s", shippers[len(shippers)-1].ShipperID)
	}
}
