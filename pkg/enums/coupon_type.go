package enums

import "fmt"

// CouponType distinguishes percentage discounts from fixed-amount ones.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// String implements fmt.Stringer.
func (c CouponType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CouponType.
func (c CouponType) IsValid() bool {
	return c == CouponTypePercentage || c == CouponTypeFixed
}

// ParseCouponType converts raw input into a CouponType.
func ParseCouponType(value string) (CouponType, error) {
	switch CouponType(value) {
	case CouponTypePercentage:
		return CouponTypePercentage, nil
	case CouponTypeFixed:
		return CouponTypeFixed, nil
	default:
		return "", fmt.Errorf("invalid coupon type %q", value)
	}
}
