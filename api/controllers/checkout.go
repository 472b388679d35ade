package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"storefront-backend/api/responses"
	"storefront-backend/api/validators"
	checkoutsvc "storefront-backend/internal/checkout"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/types"
)

type checkoutService interface {
	PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error)
}

type checkoutItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

type checkoutRequest struct {
	Items []checkoutItemRequest `json:"items,omitempty" validate:"omitempty,dive"`

	CustomerName  string  `json:"customer_name" validate:"required,max=200"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
	CustomerPhone *string `json:"customer_phone,omitempty"`
	Language      string  `json:"language,omitempty"`

	ShippingAddress types.Address `json:"shipping_address"`
	ShippingCents   int           `json:"shipping_cents" validate:"min=0"`

	PaymentMethod   string `json:"payment_method" validate:"required"`
	PaymentSourceID string `json:"payment_source_id,omitempty"`

	CouponCode string `json:"coupon_code,omitempty"`
}

// Checkout places an order for the caller. With an item list the order is
// built from the listed products; without one it consumes the caller's cart.
func Checkout(svc checkoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.PlaceOrderInput{
			UserID:          userID,
			CustomerName:    payload.CustomerName,
			CustomerEmail:   payload.CustomerEmail,
			CustomerPhone:   payload.CustomerPhone,
			Language:        payload.Language,
			ShippingAddress: payload.ShippingAddress,
			ShippingCents:   payload.ShippingCents,
			PaymentMethod:   method,
			PaymentSourceID: payload.PaymentSourceID,
			CouponCode:      payload.CouponCode,
		}

		if len(payload.Items) > 0 {
			for _, item := range payload.Items {
				input.Items = append(input.Items, checkoutsvc.ItemInput{ProductID: item.ProductID, Qty: item.Qty})
			}
		} else {
			ownerID, err := cartOwnerID(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CartOwnerID = &ownerID
		}

		order, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			// A committed order with a failed charge still exists; point
			// the client at it so payment can be retried.
			if order != nil {
				typed := pkgerrors.As(err)
				if typed != nil && typed.Code() == pkgerrors.CodeDependency {
					err = typed.WithDetails(map[string]any{
						"order_id":       order.ID.String(),
						"payment_status": string(order.PaymentStatus),
					})
				}
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}
