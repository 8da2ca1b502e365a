package domain

import "testing"

func TestOrderStatusValid(t *testing.T) {
	for _, status := range OrderStatuses {
		if !status.Valid() {
			t.Errorf("expected %q to be valid", status)
		}
	}

	for _, bad := range []OrderStatus{"", "pending", "Returned", "out for delivery"} {
		if bad.Valid() {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}

func TestOrderCancellable(t *testing.T) {
	cases := map[OrderStatus]bool{
		StatusPending:        true,
		StatusProcessing:     true,
		StatusShipped:        false,
		StatusOutForDelivery: false,
		StatusDelivered:      false,
		StatusCancelled:      false,
	}

	for status, want := range cases {
		order := &Order{Status: status}
		if got := order.Cancellable(); got != want {
			t.Errorf("Cancellable() for %s = %v, want %v", status, got, want)
		}
	}
}

func TestOrderTerminal(t *testing.T) {
	for _, status := range OrderStatuses {
		order := &Order{Status: status}
		want := status == StatusDelivered
		if got := order.Terminal(); got != want {
			t.Errorf("Terminal() for %s = %v, want %v", status, got, want)
		}
	}
}
