package models

import (
	"time"

	"github.com/google/uuid"

	"storefront-backend/pkg/enums"
)

// Coupon holds a discount code definition. Codes are stored upper-case.
// Value is interpreted per Type: whole percent for percentage coupons,
// cents for fixed coupons.
type Coupon struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string           `gorm:"column:code;not null;uniqueIndex:idx_coupons_code"`
	Type              enums.CouponType `gorm:"column:type;not null"`
	Value             int              `gorm:"column:value;not null"`
	MinOrderCents     int              `gorm:"column:min_order_cents;not null;default:0"`
	MaxDiscountCents  *int             `gorm:"column:max_discount_cents"`
	UsageLimit        *int             `gorm:"column:usage_limit"`
	UsedCount         int              `gorm:"column:used_count;not null;default:0"`
	UserUsageLimit    int              `gorm:"column:user_usage_limit;not null;default:1"`
	StartsAt          time.Time        `gorm:"column:starts_at;not null"`
	EndsAt            time.Time        `gorm:"column:ends_at;not null"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
