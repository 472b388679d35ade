package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog read view plus the stock column this engine owns.
// Stock is only mutated through conditional atomic updates in the products
// repository.
type Product struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string    `gorm:"column:name;not null"`
	Description     *string   `gorm:"column:description"`
	PriceCents      int       `gorm:"column:price_cents;not null"`
	DiscountPercent int       `gorm:"column:discount_percent;not null;default:0"`
	StockQty        int       `gorm:"column:stock_qty;not null;default:0"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents is the unit price after the product-level discount,
// rounded half up to whole cents.
func (p Product) EffectivePriceCents() int {
	if p.DiscountPercent <= 0 {
		return p.PriceCents
	}
	price := decimal.NewFromInt(int64(p.PriceCents))
	factor := decimal.NewFromInt(int64(100 - p.DiscountPercent)).
		Div(decimal.NewFromInt(100))
	return int(price.Mul(factor).Round(0).IntPart())
}
