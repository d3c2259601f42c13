package services

import (
	"context"
	"errors"
	"testing"

	"dispatch-service/internal/domain"
)

func newIntake(f *fixture, geo *stubGeocoder) *IntakeService {
	svc := &IntakeService{Orders: f.store, SMEs: f.store, Areas: f.store}
	if geo != nil {
		svc.Geocoder = geo
	}
	return svc
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	intake := newIntake(f, nil)

	order, err := intake.CreateOrder(context.Background(), NewOrderInput{
		SMEID:           "sme-1",
		AreaID:          "area-1",
		ReceiverName:    "  Lan Nguyen ",
		ReceiverAddress: "12 Vo Van Kiet",
		ReceiverCoords:  domain.Coordinates{Lat: 10.75, Lon: 106.65},
		WeightKg:        3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.OrderID == "" || order.Code == "" {
		t.Errorf("order missing identifiers: %+v", order)
	}
	if order.Status != domain.OrderPending {
		t.Errorf("status = %s, want PENDING", order.Status)
	}
	if order.Receiver.Name != "Lan Nguyen" {
		t.Errorf("receiver name not trimmed: %q", order.Receiver.Name)
	}

	legs, _ := f.store.ListLegsByOrder(context.Background(), order.OrderID)
	if len(legs) != 0 {
		t.Errorf("intake must not create legs, got %d", len(legs))
	}
}

func TestCreateOrderGeocodesReceiver(t *testing.T) {
	f := newFixture(t)
	geo := &stubGeocoder{coords: domain.Coordinates{Lat: 10.7512, Lon: 106.6488}}
	intake := newIntake(f, geo)

	order, err := intake.CreateOrder(context.Background(), NewOrderInput{
		SMEID:           "sme-1",
		AreaID:          "area-1",
		ReceiverName:    "Lan Nguyen",
		ReceiverAddress: "12 Vo Van Kiet",
		WeightKg:        3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.Receiver.Coords != geo.coords {
		t.Errorf("receiver coords = %+v, want geocoded %+v", order.Receiver.Coords, geo.coords)
	}
}

func TestCreateOrderSurvivesGeocoderOutage(t *testing.T) {
	f := newFixture(t)
	geo := &stubGeocoder{err: errors.New("quota exceeded")}
	intake := newIntake(f, geo)

	order, err := intake.CreateOrder(context.Background(), NewOrderInput{
		SMEID:           "sme-1",
		AreaID:          "area-1",
		ReceiverName:    "Lan Nguyen",
		ReceiverAddress: "12 Vo Van Kiet",
		WeightKg:        3,
	})
	if err != nil {
		t.Fatalf("intake must not fail on geocoder outage: %v", err)
	}
	if !order.Receiver.Coords.IsZero() {
		t.Errorf("coords = %+v, want unresolved", order.Receiver.Coords)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	intake := newIntake(f, nil)
	ctx := context.Background()

	valid := NewOrderInput{
		SMEID:           "sme-1",
		AreaID:          "area-1",
		ReceiverName:    "Lan Nguyen",
		ReceiverAddress: "12 Vo Van Kiet",
		WeightKg:        3,
	}

	cases := []struct {
		name   string
		mutate func(*NewOrderInput)
	}{
		{"missing sme", func(in *NewOrderInput) { in.SMEID = "" }},
		{"missing area", func(in *NewOrderInput) { in.AreaID = "" }},
		{"missing receiver name", func(in *NewOrderInput) { in.ReceiverName = "  " }},
		{"missing address", func(in *NewOrderInput) { in.ReceiverAddress = "" }},
		{"zero weight", func(in *NewOrderInput) { in.WeightKg = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, err := intake.CreateOrder(ctx, in)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateOrderUnknownSME(t *testing.T) {
	f := newFixture(t)
	intake := newIntake(f, nil)

	_, err := intake.CreateOrder(context.Background(), NewOrderInput{
		SMEID:           "sme-ghost",
		AreaID:          "area-1",
		ReceiverName:    "Lan Nguyen",
		ReceiverAddress: "12 Vo Van Kiet",
		WeightKg:        3,
	})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
