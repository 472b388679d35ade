package models

import (
	"time"

	"github.com/google/uuid"

	"storefront-backend/pkg/enums"
	"storefront-backend/pkg/types"
)

// Order is the committed transaction record. Its items are immutable
// snapshots; only status, payment and tracking fields change after insert.
type Order struct {
	ID     uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID *uuid.UUID `gorm:"column:user_id;type:uuid;index:idx_orders_user"`

	Status enums.OrderStatus `gorm:"column:status;not null;default:'pending';index:idx_orders_status"`

	CustomerName  string  `gorm:"column:customer_name;not null"`
	CustomerEmail *string `gorm:"column:customer_email"`
	CustomerPhone *string `gorm:"column:customer_phone"`
	Language      string  `gorm:"column:language;not null;default:'en'"`

	ShippingAddress types.Address `gorm:"column:shipping_address;type:jsonb;serializer:json"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentRef    *string             `gorm:"column:payment_ref"`

	CouponCode    *string `gorm:"column:coupon_code"`
	SubtotalCents int     `gorm:"column:subtotal_cents;not null"`
	DiscountCents int     `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents int     `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents    int     `gorm:"column:total_cents;not null"`

	TrackingNumber    *string    `gorm:"column:tracking_number;uniqueIndex:idx_orders_tracking_number"`
	EstimatedDelivery *time.Time `gorm:"column:estimated_delivery"`
	DeliveredAt       *time.Time `gorm:"column:delivered_at"`
	CancelledAt       *time.Time `gorm:"column:cancelled_at"`

	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TrackingEvents []OrderTrackingEvent `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
