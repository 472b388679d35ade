package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"storefront-backend/api/responses"
	"storefront-backend/api/validators"
	ordersvc "storefront-backend/internal/orders"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/pagination"
)

type adminOrderService interface {
	Transition(ctx context.Context, input ordersvc.TransitionInput) (*models.Order, error)
	BatchTransition(ctx context.Context, orderIDs []uuid.UUID, status enums.OrderStatus, notes *string, actorID *uuid.UUID) ([]ordersvc.BatchResult, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, string, error)
}

// AdminOrdersList pages through all orders, optionally filtered by status.
func AdminOrdersList(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.OrderStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
				return
			}
			status = &parsed
		}
		orders, nextCursor, err := svc.ListAll(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(orders, nextCursor))
	}
}

type orderTransitionRequest struct {
	Status            string     `json:"status" validate:"required"`
	Notes             *string    `json:"notes,omitempty" validate:"omitempty,max=500"`
	TrackingNumber    *string    `json:"tracking_number,omitempty" validate:"omitempty,max=64"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

// AdminOrderTransition moves one order to a new fulfillment status.
func AdminOrderTransition(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParsePathUUID(pathParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload orderTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}
		actorID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			OrderID:           orderID,
			NewStatus:         status,
			Notes:             payload.Notes,
			TrackingNumber:    payload.TrackingNumber,
			EstimatedDelivery: payload.EstimatedDelivery,
			ActorID:           actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type batchTransitionRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" validate:"required,min=1"`
	Status   string      `json:"status" validate:"required"`
	Notes    *string     `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// AdminOrderBatchTransition applies one status change to many orders and
// reports the per-order outcomes.
func AdminOrderBatchTransition(svc adminOrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload batchTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}
		actorID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.BatchTransition(r.Context(), payload.OrderIDs, status, payload.Notes, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"results": results})
	}
}
