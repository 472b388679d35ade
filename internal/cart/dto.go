package cart

import (
	"github.com/google/uuid"
)

// Issue flags a cart line that cannot be purchased as-is.
type Issue struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
	Requested int       `json:"requested,omitempty"`
	Available int       `json:"available,omitempty"`
}

// Issue reasons surfaced to clients.
const (
	IssueReasonInactive          = "inactive"
	IssueReasonInsufficientStock = "insufficient_stock"
)

// PricedLine is one cart line joined with a fresh product snapshot.
type PricedLine struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Qty            int       `json:"qty"`
	UnitPriceCents int       `json:"unit_price_cents"`
	LineTotalCents int       `json:"line_total_cents"`
}

// PricedCart is the cart priced against current catalog state. Lines whose
// product vanished or went inactive are dropped and reported in Issues.
type PricedCart struct {
	UserID        uuid.UUID    `json:"user_id"`
	Lines         []PricedLine `json:"lines"`
	SubtotalCents int          `json:"subtotal_cents"`
	ItemCount     int          `json:"item_count"`
	Issues        []Issue      `json:"issues,omitempty"`
}
