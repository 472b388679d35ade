package checkout

import (
	"github.com/google/uuid"

	"storefront-backend/pkg/enums"
	"storefront-backend/pkg/types"
)

// ItemInput is one requested purchase line when the caller submits an
// explicit item list instead of a cart.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Qty       int       `json:"qty"`
}

// PlaceOrderInput carries everything needed to convert a cart or item
// list into a committed order.
type PlaceOrderInput struct {
	// UserID identifies the authenticated customer, nil for guests.
	UserID *uuid.UUID
	// CartOwnerID selects the cart whose lines become the order. The
	// cart is consumed inside the order transaction. When nil, Items
	// must be provided instead.
	CartOwnerID *uuid.UUID
	Items       []ItemInput

	CustomerName  string
	CustomerEmail *string
	CustomerPhone *string
	Language      string

	ShippingAddress types.Address
	ShippingCents   int

	PaymentMethod   enums.PaymentMethod
	PaymentSourceID string

	CouponCode string
}
