package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/coupons"
	"storefront-backend/internal/orders"
	"storefront-backend/internal/products"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
	"storefront-backend/pkg/outbox"
	"storefront-backend/pkg/payments"
	"storefront-backend/pkg/types"
)

type testTxRunner struct {
	db *gorm.DB
}

func (t testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	r.events = append(r.events, event)
	return nil
}

type stubCharger struct {
	result *payments.ChargeResult
	err    error
	calls  int
}

func (s *stubCharger) Charge(ctx context.Context, input payments.ChargeInput) (*payments.ChargeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
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
CREATE TABLE IF NOT EXISTS cart_lines (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  qty INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`, `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  value INTEGER NOT NULL,
  min_order_cents INTEGER NOT NULL DEFAULT 0,
  max_discount_cents INTEGER,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  user_usage_limit INTEGER NOT NULL DEFAULT 1,
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS coupon_usages (
  id TEXT PRIMARY KEY,
  coupon_id TEXT NOT NULL,
  user_id TEXT,
  order_id TEXT NOT NULL UNIQUE,
  used_at DATETIME
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

type checkoutFixture struct {
	svc     *Service
	db      *gorm.DB
	outbox  *recordingOutbox
	charger *stubCharger
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	db := setupCheckoutTestDB(t)
	couponSvc, err := coupons.NewService(coupons.NewRepository(db))
	require.NoError(t, err)

	sink := &recordingOutbox{}
	charger := &stubCharger{result: &payments.ChargeResult{
		Status:         enums.PaymentStatusPaid,
		TransactionRef: "sq-txn-1",
	}}

	svc, err := NewService(
		testTxRunner{db: db},
		cart.NewRepository(db),
		orders.NewRepository(db),
		products.NewRepository(db),
		couponSvc,
		sink,
		charger,
		nil,
	)
	require.NoError(t, err)
	return &checkoutFixture{svc: svc, db: db, outbox: sink, charger: charger}
}

func (f *checkoutFixture) seedProduct(t *testing.T, name string, priceCents, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: priceCents,
		StockQty:   stock,
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *checkoutFixture) seedCartLine(t *testing.T, userID, productID uuid.UUID, qty int) {
	t.Helper()
	require.NoError(t, f.db.Create(&models.CartLine{
		ID: uuid.New(), UserID: userID, ProductID: productID, Qty: qty,
	}).Error)
}

func baseInput(userID *uuid.UUID) PlaceOrderInput {
	return PlaceOrderInput{
		UserID:        userID,
		CustomerName:  "Ada Smith",
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		ShippingAddress: types.Address{
			Line1: "1 Elm St", City: "Springfield", State: "IL", PostalCode: "62704", Country: "US",
		},
	}
}

func TestPlaceOrder_FromCartWithCoupon(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	chair := f.seedProduct(t, "Oak Chair", 5000, 10)
	lamp := f.seedProduct(t, "Brass Lamp", 2500, 4)
	f.seedCartLine(t, userID, chair.ID, 2)
	f.seedCartLine(t, userID, lamp.ID, 1)

	require.NoError(t, f.db.Create(&models.Coupon{
		ID: uuid.New(), Code: "SAVE20", Type: enums.CouponTypeFixed, Value: 2000,
		MinOrderCents: 10000, UserUsageLimit: 1, IsActive: true,
		StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
	}).Error)

	input := baseInput(&userID)
	input.CartOwnerID = &userID
	input.CouponCode = "save20"
	input.ShippingCents = 500

	order, err := f.svc.PlaceOrder(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, 12500, order.SubtotalCents)
	assert.Equal(t, 2000, order.DiscountCents)
	assert.Equal(t, 11000, order.TotalCents)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE20", *order.CouponCode)
	assert.Equal(t, enums.OrderStatusPending, order.Status)

	// item snapshots hold the purchase-time name and price
	stored, err := orders.NewRepository(f.db).FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	require.Len(t, stored.TrackingEvents, 1)
	assert.Equal(t, enums.OrderStatusPending, stored.TrackingEvents[0].Status)

	var freshChair models.Product
	require.NoError(t, f.db.First(&freshChair, "id = ?", chair.ID).Error)
	assert.Equal(t, 8, freshChair.StockQty)

	var cartCount int64
	require.NoError(t, f.db.Model(&models.CartLine{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Zero(t, cartCount, "cart is consumed in the same transaction")

	var coupon models.Coupon
	require.NoError(t, f.db.First(&coupon, "code = ?", "SAVE20").Error)
	assert.Equal(t, 1, coupon.UsedCount)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, enums.OutboxEventOrderPlaced, f.outbox.events[0].EventType)
	assert.Equal(t, order.ID, f.outbox.events[0].AggregateID)
}

func TestPlaceOrder_SnapshotsSurviveCatalogEdits(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	desk := f.seedProduct(t, "Walnut Desk", 30000, 5)
	f.seedCartLine(t, userID, desk.ID, 1)

	input := baseInput(&userID)
	input.CartOwnerID = &userID

	order, err := f.svc.PlaceOrder(ctx, input)
	require.NoError(t, err)

	// reprice and rename the product after the sale
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", desk.ID).Updates(map[string]any{
		"name":             "Walnut Desk (2nd Edition)",
		"price_cents":      45000,
		"discount_percent": 10,
	}).Error)

	stored, err := orders.NewRepository(f.db).FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Walnut Desk", stored.Items[0].ProductName)
	assert.Equal(t, 30000, stored.Items[0].UnitPriceCents)
	assert.Equal(t, 30000, stored.Items[0].TotalCents)
	assert.Equal(t, 30000, stored.SubtotalCents)
	assert.Equal(t, 30000, stored.TotalCents)
}

func TestPlaceOrder_StockShortageAbortsEverything(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	plenty := f.seedProduct(t, "Plenty", 1000, 50)
	scarce := f.seedProduct(t, "Scarce", 1000, 1)
	f.seedCartLine(t, userID, plenty.ID, 2)
	f.seedCartLine(t, userID, scarce.ID, 3)

	input := baseInput(&userID)
	input.CartOwnerID = &userID

	_, err := f.svc.PlaceOrder(ctx, input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	issues, ok := details["items"].([]cart.Issue)
	require.True(t, ok)
	require.Len(t, issues, 1)
	assert.Equal(t, scarce.ID, issues[0].ProductID)
	assert.Equal(t, 1, issues[0].Available)

	// nothing committed
	var fresh models.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", plenty.ID).Error)
	assert.Equal(t, 50, fresh.StockQty)

	var orderCount, cartCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, f.db.Model(&models.CartLine{}).Where("user_id = ?", userID).Count(&cartCount).Error)
	assert.Zero(t, orderCount)
	assert.EqualValues(t, 2, cartCount)
	assert.Empty(t, f.outbox.events)
}

func TestPlaceOrder_CouponRejectionAborts(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	product := f.seedProduct(t, "Rug", 3000, 5)
	f.seedCartLine(t, userID, product.ID, 1)

	require.NoError(t, f.db.Create(&models.Coupon{
		ID: uuid.New(), Code: "DEAD", Type: enums.CouponTypeFixed, Value: 500,
		UserUsageLimit: 1, IsActive: true,
		StartsAt: time.Now().Add(-2 * time.Hour), EndsAt: time.Now().Add(-time.Hour),
	}).Error)

	input := baseInput(&userID)
	input.CartOwnerID = &userID
	input.CouponCode = "DEAD"

	_, err := f.svc.PlaceOrder(ctx, input)
	require.Error(t, err)

	var fresh models.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 5, fresh.StockQty)

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)
}

func TestPlaceOrder_GuestItemList(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "Mug", 1200, 3)

	input := baseInput(nil)
	input.Items = []ItemInput{{ProductID: product.ID, Qty: 2}}

	order, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Equal(t, 2400, order.TotalCents)
	assert.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	assert.Zero(t, f.charger.calls, "cash on delivery never hits the gateway")
}

func TestPlaceOrder_GuestCouponNotPooledAcrossGuests(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Teapot", 8000, 10)

	require.NoError(t, f.db.Create(&models.Coupon{
		ID: uuid.New(), Code: "HELLO", Type: enums.CouponTypeFixed, Value: 500,
		UserUsageLimit: 1, IsActive: true,
		StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
	}).Error)

	// two unrelated guests redeem the same single-use-per-customer coupon
	for i := 0; i < 2; i++ {
		input := baseInput(nil)
		input.Items = []ItemInput{{ProductID: product.ID, Qty: 1}}
		input.CouponCode = "HELLO"

		order, err := f.svc.PlaceOrder(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, 7500, order.TotalCents)
	}

	var anonymous int64
	require.NoError(t, f.db.Model(&models.CouponUsage{}).Where("user_id IS NULL").Count(&anonymous).Error)
	assert.EqualValues(t, 2, anonymous)
}

func TestPlaceOrder_CardChargeSuccessStampsPayment(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	product := f.seedProduct(t, "Vase", 4000, 2)

	input := baseInput(nil)
	input.Items = []ItemInput{{ProductID: product.ID, Qty: 1}}
	input.PaymentMethod = enums.PaymentMethodCard
	input.PaymentSourceID = "cnon:card-ok"

	order, err := f.svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	require.NotNil(t, order.PaymentRef)
	assert.Equal(t, "sq-txn-1", *order.PaymentRef)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)
}

func TestPlaceOrder_CardChargeFailureKeepsOrder(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	f.charger.err = errors.New("card declined")
	product := f.seedProduct(t, "Clock", 6000, 2)

	input := baseInput(nil)
	input.Items = []ItemInput{{ProductID: product.ID, Qty: 1}}
	input.PaymentMethod = enums.PaymentMethodCard
	input.PaymentSourceID = "cnon:card-bad"

	order, err := f.svc.PlaceOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	require.NotNil(t, order, "the committed order survives the failed charge")
	assert.Equal(t, enums.PaymentStatusFailed, order.PaymentStatus)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusFailed, stored.PaymentStatus)

	var fresh models.Product
	require.NoError(t, f.db.First(&fresh, "id = ?", product.ID).Error)
	assert.Equal(t, 1, fresh.StockQty, "stock stays taken while payment is retried out of band")
}

func TestPlaceOrder_InputValidation(t *testing.T) {
	t.Parallel()

	f := newCheckoutFixture(t)
	ctx := context.Background()

	noName := baseInput(nil)
	noName.CustomerName = ""
	noName.Items = []ItemInput{{ProductID: uuid.New(), Qty: 1}}
	_, err := f.svc.PlaceOrder(ctx, noName)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	noItems := baseInput(nil)
	_, err = f.svc.PlaceOrder(ctx, noItems)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	cardNoSource := baseInput(nil)
	cardNoSource.Items = []ItemInput{{ProductID: uuid.New(), Qty: 1}}
	cardNoSource.PaymentMethod = enums.PaymentMethodCard
	_, err = f.svc.PlaceOrder(ctx, cardNoSource)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
