package controllers

import (
	"time"

	"github.com/google/uuid"

	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/types"
)

type orderItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Qty            int       `json:"qty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
}

type trackingEventResponse struct {
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type orderResponse struct {
	ID     uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Status string     `json:"status"`

	CustomerName  string  `json:"customer_name"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	Language      string  `json:"language"`

	ShippingAddress types.Address `json:"shipping_address"`

	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	PaymentRef    *string `json:"payment_ref,omitempty"`

	CouponCode    *string `json:"coupon_code,omitempty"`
	SubtotalCents int     `json:"subtotal_cents"`
	DiscountCents int     `json:"discount_cents"`
	ShippingCents int     `json:"shipping_cents"`
	TotalCents    int     `json:"total_cents"`

	TrackingNumber    *string    `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`

	Items          []orderItemResponse     `json:"items,omitempty"`
	TrackingEvents []trackingEventResponse `json:"tracking_events,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:                order.ID,
		UserID:            order.UserID,
		Status:            order.Status.String(),
		CustomerName:      order.CustomerName,
		CustomerEmail:     order.CustomerEmail,
		CustomerPhone:     order.CustomerPhone,
		Language:          order.Language,
		ShippingAddress:   order.ShippingAddress,
		PaymentMethod:     string(order.PaymentMethod),
		PaymentStatus:     string(order.PaymentStatus),
		PaymentRef:        order.PaymentRef,
		CouponCode:        order.CouponCode,
		SubtotalCents:     order.SubtotalCents,
		DiscountCents:     order.DiscountCents,
		ShippingCents:     order.ShippingCents,
		TotalCents:        order.TotalCents,
		TrackingNumber:    order.TrackingNumber,
		EstimatedDelivery: order.EstimatedDelivery,
		DeliveredAt:       order.DeliveredAt,
		CancelledAt:       order.CancelledAt,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	for _, event := range order.TrackingEvents {
		resp.TrackingEvents = append(resp.TrackingEvents, trackingEventResponse{
			Status:    event.Status.String(),
			Notes:     event.Notes,
			CreatedAt: event.CreatedAt,
		})
	}
	return resp
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderListResponse(orders []models.Order, nextCursor string) orderListResponse {
	resp := orderListResponse{Orders: make([]orderResponse, 0, len(orders)), NextCursor: nextCursor}
	for i := range orders {
		resp.Orders = append(resp.Orders, newOrderResponse(&orders[i]))
	}
	return resp
}

type couponResponse struct {
	ID               uuid.UUID `json:"id"`
	Code             string    `json:"code"`
	Type             string    `json:"type"`
	Value            int       `json:"value"`
	MinOrderCents    int       `json:"min_order_cents"`
	MaxDiscountCents *int      `json:"max_discount_cents,omitempty"`
	UsageLimit       *int      `json:"usage_limit,omitempty"`
	UsedCount        int       `json:"used_count"`
	UserUsageLimit   int       `json:"user_usage_limit"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newCouponResponse(coupon *models.Coupon) couponResponse {
	return couponResponse{
		ID:               coupon.ID,
		Code:             coupon.Code,
		Type:             string(coupon.Type),
		Value:            coupon.Value,
		MinOrderCents:    coupon.MinOrderCents,
		MaxDiscountCents: coupon.MaxDiscountCents,
		UsageLimit:       coupon.UsageLimit,
		UsedCount:        coupon.UsedCount,
		UserUsageLimit:   coupon.UserUsageLimit,
		StartsAt:         coupon.StartsAt,
		EndsAt:           coupon.EndsAt,
		IsActive:         coupon.IsActive,
		CreatedAt:        coupon.CreatedAt,
		UpdatedAt:        coupon.UpdatedAt,
	}
}
