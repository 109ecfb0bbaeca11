package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPlaced, OrderStatusConfirmed, true},
		{OrderStatusPlaced, OrderStatusCancelled, true},
		{OrderStatusPlaced, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPlaced, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
	if !OrderStatusDelivered.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Fatal("delivered and cancelled should be terminal")
	}
	if OrderStatusPlaced.IsTerminal() {
		t.Fatal("placed should not be terminal")
	}
}

func TestParsePaymentStatus(t *testing.T) {
	got, err := ParsePaymentStatus("pending_verification")
	if err != nil || got != PaymentStatusPendingVerification {
		t.Fatalf("unexpected parse result %q, %v", got, err)
	}
	if _, err := ParsePaymentStatus("paid"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}
