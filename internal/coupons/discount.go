package coupons

import (
	"github.com/shopspring/decimal"

	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// computeDiscount returns the discount in cents the coupon yields against
// the given amount. Percentage math runs in decimal and rounds half up so
// a 10% coupon on 1005 cents discounts 101, not 100. The result never
// exceeds the amount itself.
func computeDiscount(coupon *models.Coupon, amountCents int) int {
	var discount int
	switch coupon.Type {
	case enums.CouponTypePercentage:
		raw := decimal.NewFromInt(int64(amountCents)).
			Mul(decimal.NewFromInt(int64(coupon.Value))).
			Div(hundred).
			Round(0).
			IntPart()
		discount = int(raw)
		if coupon.MaxDiscountCents != nil && discount > *coupon.MaxDiscountCents {
			discount = *coupon.MaxDiscountCents
		}
	case enums.CouponTypeFixed:
		discount = coupon.Value
	}
	if discount > amountCents {
		discount = amountCents
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}
