package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"storefront-backend/api/responses"
	"storefront-backend/api/validators"
	couponsvc "storefront-backend/internal/coupons"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	"storefront-backend/pkg/logger"
)

type couponService interface {
	Validate(ctx context.Context, code string, userID *uuid.UUID, amountCents int) (*couponsvc.Quote, error)
	Create(ctx context.Context, input couponsvc.CreateInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input couponsvc.UpdateInput) (*models.Coupon, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]models.Coupon, error)
}

type couponValidateRequest struct {
	Code        string `json:"code" validate:"required,max=64"`
	AmountCents int    `json:"amount_cents" validate:"required,min=1"`
}

type couponQuoteResponse struct {
	Code          string `json:"code"`
	DiscountCents int    `json:"discount_cents"`
	FinalCents    int    `json:"final_cents"`
}

// CouponValidate quotes a coupon against an order amount without redeeming it.
func CouponValidate(svc couponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload couponValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Validate(r.Context(), payload.Code, userID, payload.AmountCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, couponQuoteResponse{
			Code:          quote.Coupon.Code,
			DiscountCents: quote.DiscountCents,
			FinalCents:    quote.FinalCents,
		})
	}
}

type couponCreateRequest struct {
	Code             string    `json:"code" validate:"required,max=64"`
	Type             string    `json:"type" validate:"required,oneof=percentage fixed"`
	Value            int       `json:"value" validate:"required,min=1"`
	MinOrderCents    int       `json:"min_order_cents" validate:"min=0"`
	MaxDiscountCents *int      `json:"max_discount_cents,omitempty"`
	UsageLimit       *int      `json:"usage_limit,omitempty"`
	UserUsageLimit   int       `json:"user_usage_limit" validate:"min=0"`
	StartsAt         time.Time `json:"starts_at" validate:"required"`
	EndsAt           time.Time `json:"ends_at" validate:"required"`
}

// AdminCouponCreate registers a new coupon code.
func AdminCouponCreate(svc couponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload couponCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.Create(r.Context(), couponsvc.CreateInput{
			Code:             payload.Code,
			Type:             enums.CouponType(payload.Type),
			Value:            payload.Value,
			MinOrderCents:    payload.MinOrderCents,
			MaxDiscountCents: payload.MaxDiscountCents,
			UsageLimit:       payload.UsageLimit,
			UserUsageLimit:   payload.UserUsageLimit,
			StartsAt:         payload.StartsAt,
			EndsAt:           payload.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(coupon))
	}
}

type couponUpdateRequest struct {
	Value            *int       `json:"value,omitempty" validate:"omitempty,min=1"`
	MinOrderCents    *int       `json:"min_order_cents,omitempty" validate:"omitempty,min=0"`
	MaxDiscountCents *int       `json:"max_discount_cents,omitempty"`
	UsageLimit       *int       `json:"usage_limit,omitempty"`
	UserUsageLimit   *int       `json:"user_usage_limit,omitempty" validate:"omitempty,min=0"`
	StartsAt         *time.Time `json:"starts_at,omitempty"`
	EndsAt           *time.Time `json:"ends_at,omitempty"`
	IsActive         *bool      `json:"is_active,omitempty"`
}

// AdminCouponUpdate patches the mutable coupon fields.
func AdminCouponUpdate(svc couponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.ParsePathUUID(pathParam(r, "couponId"), "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload couponUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.Update(r.Context(), couponID, couponsvc.UpdateInput{
			Value:            payload.Value,
			MinOrderCents:    payload.MinOrderCents,
			MaxDiscountCents: payload.MaxDiscountCents,
			UsageLimit:       payload.UsageLimit,
			UserUsageLimit:   payload.UserUsageLimit,
			StartsAt:         payload.StartsAt,
			EndsAt:           payload.EndsAt,
			IsActive:         payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCouponResponse(coupon))
	}
}

// AdminCouponDeactivate turns a coupon off without deleting its history.
func AdminCouponDeactivate(svc couponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.ParsePathUUID(pathParam(r, "couponId"), "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// AdminCouponList pages through coupon definitions.
func AdminCouponList(svc couponService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly := r.URL.Query().Get("active") == "true"

		coupons, err := svc.List(r.Context(), activeOnly, limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]couponResponse, 0, len(coupons))
		for i := range coupons {
			out = append(out, newCouponResponse(&coupons[i]))
		}
		responses.WriteSuccess(w, map[string]any{"coupons": out})
	}
}
