package enums

// OutboxEventType enumerates the domain events recorded in the outbox table.
type OutboxEventType string

const (
	OutboxEventOrderPlaced        OutboxEventType = "order.placed"
	OutboxEventOrderStatusChanged OutboxEventType = "order.status_changed"
	OutboxEventOrderCancelled     OutboxEventType = "order.cancelled"
)

func (o OutboxEventType) String() string {
	return string(o)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder OutboxAggregateType = "order"
)

func (o OutboxAggregateType) String() string {
	return string(o)
}

// OutboxStatus is the publish lifecycle of an outbox row.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

func (o OutboxStatus) String() string {
	return string(o)
}
