package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-backend/internal/cart"
	"storefront-backend/internal/coupons"
	"storefront-backend/internal/orders"
	"storefront-backend/internal/products"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/outbox"
	"storefront-backend/pkg/outbox/payloads"
	"storefront-backend/pkg/payments"
)

const chargeTimeout = 15 * time.Second

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type couponEngine interface {
	Validate(ctx context.Context, code string, userID *uuid.UUID, amountCents int) (*coupons.Quote, error)
	Apply(ctx context.Context, tx *gorm.DB, coupon *models.Coupon, userID *uuid.UUID, orderID uuid.UUID) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentCharger interface {
	Charge(ctx context.Context, input payments.ChargeInput) (*payments.ChargeResult, error)
}

// Service executes the order transaction: cart or item list in, committed
// order out, all stock and coupon writes in one unit.
type Service struct {
	tx        txRunner
	cartRepo  *cart.Repository
	orderRepo *orders.Repository
	products  *products.Repository
	coupons   couponEngine
	outbox    outboxPublisher
	payments  paymentCharger
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout service. The payment charger may be nil
// when card payments are disabled.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	orderRepo *orders.Repository,
	productRepo *products.Repository,
	couponSvc couponEngine,
	publisher outboxPublisher,
	charger paymentCharger,
	logg *logger.Logger,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon engine required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		tx:        tx,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		products:  productRepo,
		coupons:   couponSvc,
		outbox:    publisher,
		payments:  charger,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// PlaceOrder runs the whole order transaction. Every write between the
// stock decrements and the outbox row commits or rolls back together.
// When the order commits but the card charge fails, the order stands with
// payment_status failed and the charge error is returned alongside it.
func (s *Service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, err := s.resolveLines(ctx, tx, input)
		if err != nil {
			return err
		}

		productRepo := s.products.WithTx(tx)
		ids := make([]uuid.UUID, len(lines))
		for i, line := range lines {
			ids[i] = line.ProductID
		}
		snapshots, err := productRepo.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		items, subtotal, issues := buildItems(lines, snapshots)
		if len(issues) > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order cannot be fulfilled").
				WithDetails(map[string]any{"items": issues})
		}

		var quote *coupons.Quote
		if input.CouponCode != "" {
			quote, err = s.coupons.Validate(ctx, input.CouponCode, s.redemptionIdentity(input), subtotal)
			if err != nil {
				return err
			}
		}

		for _, line := range lines {
			if err := productRepo.DecrementStock(ctx, line.ProductID, line.Qty); err != nil {
				return err
			}
		}

		discount := 0
		var couponCode *string
		if quote != nil {
			discount = quote.DiscountCents
			couponCode = &quote.Coupon.Code
		}
		total := subtotal - discount + input.ShippingCents
		if total < 0 {
			total = 0
		}

		language := input.Language
		if language == "" {
			language = "en"
		}

		order = &models.Order{
			ID:              uuid.New(),
			UserID:          input.UserID,
			Status:          enums.OrderStatusPending,
			CustomerName:    input.CustomerName,
			CustomerEmail:   input.CustomerEmail,
			CustomerPhone:   input.CustomerPhone,
			Language:        language,
			ShippingAddress: input.ShippingAddress,
			PaymentMethod:   input.PaymentMethod,
			PaymentStatus:   enums.PaymentStatusPending,
			CouponCode:      couponCode,
			SubtotalCents:   subtotal,
			DiscountCents:   discount,
			ShippingCents:   input.ShippingCents,
			TotalCents:      total,
			Items:           items,
		}

		orderRepo := s.orderRepo.WithTx(tx)
		if _, err := orderRepo.Create(ctx, order); err != nil {
			return err
		}
		placedNote := "Order placed"
		if err := orderRepo.InsertTrackingEvent(ctx, &models.OrderTrackingEvent{
			OrderID: order.ID,
			Status:  enums.OrderStatusPending,
			Notes:   &placedNote,
			ActorID: input.UserID,
		}); err != nil {
			return err
		}

		if quote != nil {
			if err := s.coupons.Apply(ctx, tx, quote.Coupon, s.redemptionIdentity(input), order.ID); err != nil {
				return err
			}
		}

		if input.CartOwnerID != nil {
			if err := s.cartRepo.WithTx(tx).Clear(ctx, *input.CartOwnerID); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderPlaced,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPlacedEvent{
				OrderID:       order.ID,
				UserID:        order.UserID,
				SubtotalCents: order.SubtotalCents,
				DiscountCents: order.DiscountCents,
				TotalCents:    order.TotalCents,
				CouponCode:    order.CouponCode,
				PaymentMethod: order.PaymentMethod,
				ItemCount:     len(order.Items),
				PlacedAt:      s.now(),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	if input.PaymentMethod == enums.PaymentMethodCard {
		if chargeErr := s.collectPayment(ctx, order, input.PaymentSourceID); chargeErr != nil {
			return order, chargeErr
		}
	}
	return order, nil
}

func (s *Service) validateInput(input PlaceOrderInput) error {
	if input.CustomerName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if input.PaymentMethod == enums.PaymentMethodCard && input.PaymentSourceID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment source required for card payments")
	}
	if input.CartOwnerID == nil && len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order needs a cart or an item list")
	}
	if input.ShippingCents < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping amount must not be negative")
	}
	if !input.ShippingAddress.Validate() {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}
	for _, item := range input.Items {
		if item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item qty must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
	}
	return nil
}

// redemptionIdentity is the id coupon limits are counted against: the
// authenticated user when present, the guest cart token otherwise.
func (s *Service) redemptionIdentity(input PlaceOrderInput) *uuid.UUID {
	if input.UserID != nil {
		return input.UserID
	}
	return input.CartOwnerID
}

func (s *Service) resolveLines(ctx context.Context, tx *gorm.DB, input PlaceOrderInput) ([]ItemInput, error) {
	if input.CartOwnerID == nil {
		return input.Items, nil
	}
	cartLines, err := s.cartRepo.WithTx(tx).ListByUser(ctx, *input.CartOwnerID)
	if err != nil {
		return nil, err
	}
	if len(cartLines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	lines := make([]ItemInput, len(cartLines))
	for i, line := range cartLines {
		lines[i] = ItemInput{ProductID: line.ProductID, Qty: line.Qty}
	}
	return lines, nil
}

// buildItems snapshots name and effective price per line against fresh
// product state. All problems are collected so the caller sees the full
// list of offending items, not just the first.
func buildItems(lines []ItemInput, snapshots map[uuid.UUID]models.Product) ([]models.OrderItem, int, []cart.Issue) {
	items := make([]models.OrderItem, 0, len(lines))
	var issues []cart.Issue
	subtotal := 0
	for _, line := range lines {
		product, ok := snapshots[line.ProductID]
		if !ok || !product.IsActive {
			issues = append(issues, cart.Issue{
				ProductID: line.ProductID,
				Reason:    cart.IssueReasonInactive,
				Requested: line.Qty,
			})
			continue
		}
		if product.StockQty < line.Qty {
			issues = append(issues, cart.Issue{
				ProductID: line.ProductID,
				Reason:    cart.IssueReasonInsufficientStock,
				Requested: line.Qty,
				Available: product.StockQty,
			})
			continue
		}
		unit := product.EffectivePriceCents()
		lineTotal := unit * line.Qty
		subtotal += lineTotal
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Qty:            line.Qty,
			UnitPriceCents: unit,
			TotalCents:     lineTotal,
		})
	}
	return items, subtotal, issues
}

// collectPayment charges the committed order. The order is never rolled
// back here: a failed charge stamps payment_status failed and reports the
// error to the caller.
func (s *Service) collectPayment(ctx context.Context, order *models.Order, sourceID string) error {
	if s.payments == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "card payments are not configured")
	}

	chargeCtx, cancel := context.WithTimeout(ctx, chargeTimeout)
	defer cancel()

	result, err := s.payments.Charge(chargeCtx, payments.ChargeInput{
		OrderID:        order.ID,
		AmountCents:    order.TotalCents,
		SourceID:       sourceID,
		IdempotencyKey: "order-" + order.ID.String(),
		Note:           "storefront order " + order.ID.String(),
	})
	if err != nil {
		if stampErr := s.orderRepo.UpdatePaymentResult(ctx, order.ID, enums.PaymentStatusFailed, nil); stampErr != nil && s.logg != nil {
			s.logg.Error(ctx, "stamp failed payment", stampErr)
		}
		order.PaymentStatus = enums.PaymentStatusFailed
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "card charge failed")
	}

	var ref *string
	if result.TransactionRef != "" {
		ref = &result.TransactionRef
	}
	if err := s.orderRepo.UpdatePaymentResult(ctx, order.ID, result.Status, ref); err != nil {
		return err
	}
	order.PaymentStatus = result.Status
	order.PaymentRef = ref
	return nil
}
