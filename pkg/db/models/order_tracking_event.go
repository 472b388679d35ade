package models

import (
	"time"

	"github.com/google/uuid"

	"storefront-backend/pkg/enums"
)

// OrderTrackingEvent is an append-only audit row. One row is written per
// committed status transition, including the initial pending entry.
type OrderTrackingEvent struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index:idx_order_tracking_events_order"`
	Status    enums.OrderStatus `gorm:"column:status;not null"`
	Notes     *string           `gorm:"column:notes"`
	ActorID   *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
