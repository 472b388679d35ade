package payloads

import (
	"time"

	"github.com/google/uuid"

	"storefront-backend/pkg/enums"
)

// OrderPlacedEvent signals a newly committed order.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UserID        *uuid.UUID          `json:"user_id,omitempty"`
	SubtotalCents int                 `json:"subtotal_cents"`
	DiscountCents int                 `json:"discount_cents"`
	TotalCents    int                 `json:"total_cents"`
	CouponCode    *string             `json:"coupon_code,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ItemCount     int                 `json:"item_count"`
	PlacedAt      time.Time           `json:"placed_at"`
}

// OrderStatusChangedEvent is emitted on every committed status transition.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	FromStatus     enums.OrderStatus `json:"from_status"`
	ToStatus       enums.OrderStatus `json:"to_status"`
	TrackingNumber *string           `json:"tracking_number,omitempty"`
	Notes          *string           `json:"notes,omitempty"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// OrderCancelledEvent carries the cancellation specifics alongside the
// generic status change.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	CancelledAt time.Time         `json:"cancelled_at"`
	Reason      string            `json:"reason,omitempty"`
}
