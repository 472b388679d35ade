package coupons

import (
	"time"

	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
)

// Rejection reasons surfaced in error details under the "reason" key.
const (
	ReasonNotFound          = "not_found"
	ReasonNotYetActive      = "not_yet_active"
	ReasonExpired           = "expired"
	ReasonUsageLimitReached = "usage_limit_reached"
	ReasonBelowMinimum      = "below_minimum"
	ReasonUserLimitReached  = "user_limit_reached"
)

// Quote is the result of a successful validation: the coupon itself plus
// the discount it yields against the quoted amount.
type Quote struct {
	Coupon        *models.Coupon `json:"coupon"`
	DiscountCents int            `json:"discount_cents"`
	FinalCents    int            `json:"final_cents"`
}

// CreateInput carries the staff-facing fields for a new coupon.
type CreateInput struct {
	Code             string
	Type             enums.CouponType
	Value            int
	MinOrderCents    int
	MaxDiscountCents *int
	UsageLimit       *int
	UserUsageLimit   int
	StartsAt         time.Time
	EndsAt           time.Time
}

// UpdateInput holds the mutable coupon fields. Nil pointers leave the
// stored value untouched.
type UpdateInput struct {
	Value            *int
	MinOrderCents    *int
	MaxDiscountCents *int
	UsageLimit       *int
	UserUsageLimit   *int
	StartsAt         *time.Time
	EndsAt           *time.Time
	IsActive         *bool
}
