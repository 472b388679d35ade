package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    OrderStatus
		wantErr bool
	}{
		{input: "pending", want: OrderStatusPending},
		{input: "out_for_delivery", want: OrderStatusOutForDelivery},
		{input: "delivered", want: OrderStatusDelivered},
		{input: "shipped ", wantErr: true},
		{input: "PENDING", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseOrderStatus(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseOrderStatus(%q) expected error, got %q", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseOrderStatus(%q) unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("ParseOrderStatus(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	t.Parallel()

	for _, status := range validOrderStatuses {
		terminal := status == OrderStatusDelivered || status == OrderStatusCancelled
		if status.IsTerminal() != terminal {
			t.Fatalf("IsTerminal(%q) = %v, want %v", status, status.IsTerminal(), terminal)
		}
	}
}

func TestOrderStatusRequiresTracking(t *testing.T) {
	t.Parallel()

	withTracking := map[OrderStatus]bool{
		OrderStatusShipped:        true,
		OrderStatusOutForDelivery: true,
		OrderStatusDelivered:      true,
	}
	for _, status := range validOrderStatuses {
		if status.RequiresTracking() != withTracking[status] {
			t.Fatalf("RequiresTracking(%q) = %v, want %v", status, status.RequiresTracking(), withTracking[status])
		}
	}
}

func TestParseCouponType(t *testing.T) {
	t.Parallel()

	if _, err := ParseCouponType("percentage"); err != nil {
		t.Fatalf("ParseCouponType(percentage): %v", err)
	}
	if _, err := ParseCouponType("bogo"); err == nil {
		t.Fatal("ParseCouponType(bogo) expected error")
	}
}

func TestParseNotificationChannel(t *testing.T) {
	t.Parallel()

	for _, channel := range validNotificationChannels {
		got, err := ParseNotificationChannel(channel.String())
		if err != nil {
			t.Fatalf("ParseNotificationChannel(%q): %v", channel, err)
		}
		if got != channel {
			t.Fatalf("ParseNotificationChannel(%q) = %q", channel, got)
		}
	}
	if _, err := ParseNotificationChannel("pigeon"); err == nil {
		t.Fatal("ParseNotificationChannel(pigeon) expected error")
	}
}
