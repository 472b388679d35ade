package orders

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-backend/internal/notifications"
	"storefront-backend/internal/products"
	"storefront-backend/pkg/config"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
	"storefront-backend/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (t testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type recordingOutbox struct {
	mu     sync.Mutex
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingOutbox) types() []enums.OutboxEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]enums.OutboxEventType, len(r.events))
	for i, event := range r.events {
		out[i] = event.EventType
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []enums.OrderStatus
	signal   chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{signal: make(chan struct{}, 16)}
}

func (r *recordingNotifier) Dispatch(ctx context.Context, order *models.Order, status enums.OrderStatus) []notifications.Outcome {
	r.mu.Lock()
	r.statuses = append(r.statuses, status)
	r.mu.Unlock()
	r.signal <- struct{}{}
	return nil
}

func (r *recordingNotifier) waitForDispatch(t *testing.T) enums.OrderStatus {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was never invoked")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[len(r.statuses)-1]
}

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  price_cents INTEGER NOT NULL,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  customer_name TEXT NOT NULL,
  customer_email TEXT,
  customer_phone TEXT,
  language TEXT NOT NULL DEFAULT 'en',
  shipping_address TEXT,
  payment_method TEXT NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_ref TEXT,
  coupon_code TEXT,
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL,
  tracking_number TEXT UNIQUE,
  estimated_delivery DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_tracking_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  notes TEXT,
  actor_id TEXT,
  created_at DATETIME
);`}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type ordersFixture struct {
	svc      *Service
	db       *gorm.DB
	outbox   *recordingOutbox
	notifier *recordingNotifier
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()

	db := setupOrdersTestDB(t)
	sink := &recordingOutbox{}
	dispatcher := newRecordingNotifier()
	svc, err := NewService(
		testTxRunner{db: db},
		NewRepository(db),
		products.NewRepository(db),
		sink,
		dispatcher,
		config.OrdersConfig{TrackingPrefix: "TRK", BatchTransitionMax: 10},
		nil,
	)
	require.NoError(t, err)
	return &ordersFixture{svc: svc, db: db, outbox: sink, notifier: dispatcher}
}

func (f *ordersFixture) seedOrder(t *testing.T, status enums.OrderStatus, items ...models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		Status:        status,
		CustomerName:  "Ada Smith",
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		PaymentStatus: enums.PaymentStatusPending,
		SubtotalCents: 1000,
		TotalCents:    1000,
	}
	require.NoError(t, f.db.Create(order).Error)
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = order.ID
		require.NoError(t, f.db.Create(&items[i]).Error)
	}
	return order
}

func TestTransition_AppendsAuditAndNotifies(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusPending)
	notes := "confirmed by staff"
	actor := uuid.New()

	updated, err := f.svc.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		NewStatus: enums.OrderStatusConfirmed,
		Notes:     &notes,
		ActorID:   &actor,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)

	var events []models.OrderTrackingEvent
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Order("created_at ASC").Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.OrderStatusConfirmed, events[0].Status)
	require.NotNil(t, events[0].Notes)
	assert.Equal(t, notes, *events[0].Notes)
	require.NotNil(t, events[0].ActorID)
	assert.Equal(t, actor, *events[0].ActorID)

	assert.Equal(t, []enums.OutboxEventType{enums.OutboxEventOrderStatusChanged}, f.outbox.types())
	assert.Equal(t, enums.OrderStatusConfirmed, f.notifier.waitForDispatch(t))
}

func TestTransition_RejectsTerminalStates(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	ctx := context.Background()

	for _, status := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		order := f.seedOrder(t, status)
		_, err := f.svc.Transition(ctx, TransitionInput{
			OrderID:   order.ID,
			NewStatus: enums.OrderStatusProcessing,
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict), "from %s", status)
	}
}

func TestTransition_RejectsUnknownStatusAndOrder(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transition(ctx, TransitionInput{OrderID: uuid.New(), NewStatus: "teleported"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Transition(ctx, TransitionInput{OrderID: uuid.New(), NewStatus: enums.OrderStatusConfirmed})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestTransition_TrackingNumberAssignedOnceAndKept(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	ctx := context.Background()
	order := f.seedOrder(t, enums.OrderStatusProcessing)

	shipped, err := f.svc.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		NewStatus: enums.OrderStatusShipped,
	})
	require.NoError(t, err)
	require.NotNil(t, shipped.TrackingNumber)
	assert.True(t, strings.HasPrefix(*shipped.TrackingNumber, "TRK"))
	assigned := *shipped.TrackingNumber

	next, err := f.svc.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		NewStatus: enums.OrderStatusOutForDelivery,
	})
	require.NoError(t, err)
	require.NotNil(t, next.TrackingNumber)
	assert.Equal(t, assigned, *next.TrackingNumber, "a tracking number is never reassigned")
}

func TestTransition_DeliveredStampsTimestamp(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	order := f.seedOrder(t, enums.OrderStatusOutForDelivery)

	updated, err := f.svc.Transition(context.Background(), TransitionInput{
		OrderID:   order.ID,
		NewStatus: enums.OrderStatusDelivered,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.WithinDuration(t, time.Now(), *updated.DeliveredAt, time.Minute)
}

func TestTransition_CancelRestoresStock(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	ctx := context.Background()
	product := &models.Product{ID: uuid.New(), Name: "Stool", PriceCents: 900, StockQty: 3, IsActive: true}
	require.NoError(t, f.db.Create(product).Error)

	order := f.seedOrder(t, enums.OrderStatusConfirmed, models.OrderItem{
		ProductID: product.ID, ProductName: product.Name, Qty: 2, UnitPriceCents: 900, TotalCents: 1800,
	})

	updated, err := f.svc.Transition(ctx, TransitionInput{
		OrderID:   order.ID,
		NewStatus: enums.OrderStatusCancelled,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.CancelledAt)

	var fresh models.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 5, fresh.StockQty)

	assert.Equal(t, []enums.OutboxEventType{enums.OutboxEventOrderCancelled}, f.outbox.types())
}

func TestBatchTransition_PerOrderResults(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	ctx := context.Background()
	ok := f.seedOrder(t, enums.OrderStatusPending)
	terminal := f.seedOrder(t, enums.OrderStatusDelivered)
	missing := uuid.New()

	results, err := f.svc.BatchTransition(ctx, []uuid.UUID{ok.ID, terminal.ID, missing}, enums.OrderStatusConfirmed, nil, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := map[uuid.UUID]BatchResult{}
	for _, result := range results {
		byID[result.OrderID] = result
	}
	assert.True(t, byID[ok.ID].OK)
	assert.False(t, byID[terminal.ID].OK)
	assert.False(t, byID[missing].OK)

	var fresh models.Order
	require.NoError(t, f.db.First(&fresh, "id = ?", ok.ID).Error)
	assert.Equal(t, enums.OrderStatusConfirmed, fresh.Status)
}

func TestBatchTransition_RejectsOversizedBatch(t *testing.T) {
	t.Parallel()

	f := newOrdersFixture(t)
	ids := make([]uuid.UUID, 11)
	for i := range ids {
		ids[i] = uuid.New()
	}
	_, err := f.svc.BatchTransition(context.Background(), ids, enums.OrderStatusConfirmed, nil, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
