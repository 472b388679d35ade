package models

import (
	"time"

	"github.com/google/uuid"
)

// CouponUsage records one redemption of a coupon on a committed order.
// Inserted in the same transaction as the order itself. UserID is null for
// anonymous redemptions, which are never counted against per-user limits.
type CouponUsage struct {
	ID       uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID uuid.UUID  `gorm:"column:coupon_id;type:uuid;not null;index:idx_coupon_usages_coupon_user"`
	UserID   *uuid.UUID `gorm:"column:user_id;type:uuid;index:idx_coupon_usages_coupon_user"`
	OrderID  uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_coupon_usages_order"`
	UsedAt   time.Time  `gorm:"column:used_at;autoCreateTime"`
}
