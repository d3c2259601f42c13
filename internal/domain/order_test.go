package domain

import "testing"

func leg(seq int, t LegType, status LegStatus) *JourneyLeg {
	return &JourneyLeg{OrderID: "O1", Sequence: seq, Type: t, Status: status}
}

func TestDeriveOrderStatus(t *testing.T) {
	cases := []struct {
		name string
		legs []*JourneyLeg
		want OrderStatus
	}{
		{
			name: "no legs",
			legs: nil,
			want: OrderPending,
		},
		{
			name: "planned but idle",
			legs: []*JourneyLeg{
				leg(1, LegPickup, LegPending),
				leg(2, LegDelivery, LegPending),
			},
			want: OrderPending,
		},
		{
			name: "pickup running",
			legs: []*JourneyLeg{
				leg(1, LegPickup, LegInProgress),
				leg(2, LegDelivery, LegPending),
			},
			want: OrderInTransit,
		},
		{
			name: "parcel at warehouse between legs",
			legs: []*JourneyLeg{
				leg(1, LegPickup, LegCompleted),
				leg(2, LegTransfer, LegPending),
				leg(3, LegDelivery, LegPending),
			},
			want: OrderAtWarehouse,
		},
		{
			name: "delivery running",
			legs: []*JourneyLeg{
				leg(1, LegPickup, LegCompleted),
				leg(2, LegDelivery, LegInProgress),
			},
			want: OrderDelivering,
		},
		{
			name: "all legs completed",
			legs: []*JourneyLeg{
				leg(1, LegPickup, LegCompleted),
				leg(2, LegTransfer, LegCompleted),
				leg(3, LegDelivery, LegCompleted),
			},
			want: OrderCompleted,
		},
		{
			name: "cancelled legs ignored",
			legs: []*JourneyLeg{
				leg(1, LegPickup, LegCompleted),
				leg(2, LegDelivery, LegCancelled),
			},
			want: OrderCompleted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveOrderStatus(tc.legs); got != tc.want {
				t.Fatalf("DeriveOrderStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCanCancel(t *testing.T) {
	open := []*JourneyLeg{
		leg(1, LegPickup, LegCompleted),
		leg(2, LegDelivery, LegInProgress),
	}
	if !CanCancel(open) {
		t.Fatal("expected order with running delivery to be cancellable")
	}

	done := []*JourneyLeg{
		leg(1, LegPickup, LegCompleted),
		leg(2, LegDelivery, LegCompleted),
	}
	if CanCancel(done) {
		t.Fatal("expected order with completed delivery to be uncancellable")
	}
}

func TestValidateChain(t *testing.T) {
	mk := func() []*JourneyLeg {
		return []*JourneyLeg{
			{OrderID: "O1", Sequence: 1, Type: LegPickup, OriginSMEID: "SME-1", DestinationWarehouseID: "WH-HUB"},
			{OrderID: "O1", Sequence: 2, Type: LegTransfer, OriginWarehouseID: "WH-HUB", DestinationWarehouseID: "WH-SAT"},
			{OrderID: "O1", Sequence: 3, Type: LegDelivery, OriginWarehouseID: "WH-SAT", DestinationIsReceiver: true},
		}
	}

	if err := ValidateChain(mk()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gap := mk()
	gap[1].Sequence = 3
	if err := ValidateChain(gap); err == nil {
		t.Fatal("expected error for gapped sequence")
	}

	broken := mk()
	broken[2].OriginWarehouseID = "WH-OTHER"
	if err := ValidateChain(broken); err == nil {
		t.Fatal("expected error for discontinuous chain")
	}
}
