package orders

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront-backend/internal/notifications"
	"storefront-backend/internal/products"
	"storefront-backend/pkg/config"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	pkgerrors "storefront-backend/pkg/errors"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/outbox"
	"storefront-backend/pkg/outbox/payloads"
	"storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Dispatch(ctx context.Context, order *models.Order, status enums.OrderStatus) []notifications.Outcome
}

// TransitionInput carries everything a single status change needs.
type TransitionInput struct {
	OrderID           uuid.UUID
	NewStatus         enums.OrderStatus
	Notes             *string
	TrackingNumber    *string
	EstimatedDelivery *time.Time
	ActorID           *uuid.UUID
}

// BatchResult reports one order's outcome inside a batch transition.
type BatchResult struct {
	OrderID uuid.UUID `json:"order_id"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
}

// Service is the order state machine. Every committed transition writes
// the status, its audit row and the outbox event in one unit, then hands
// the order to the notifier outside the transaction.
type Service struct {
	tx       txRunner
	repo     *Repository
	stock    *products.Repository
	outbox   outboxPublisher
	notifier notifier
	cfg      config.OrdersConfig
	logg     *logger.Logger
	now      func() time.Time

	trackingMu   sync.Mutex
	trackingRand *rand.Rand
}

// NewService builds the order state machine. The notifier may be nil when
// dispatch is disabled.
func NewService(
	tx txRunner,
	repo *Repository,
	stock *products.Repository,
	publisher outboxPublisher,
	dispatcher notifier,
	cfg config.OrdersConfig,
	logg *logger.Logger,
) (*Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock restorer required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{
		tx:           tx,
		repo:         repo,
		stock:        stock,
		outbox:       publisher,
		notifier:     dispatcher,
		cfg:          cfg,
		logg:         logg,
		now:          time.Now,
		trackingRand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Transition applies one status change. Transitions out of delivered or
// cancelled are rejected. Notification dispatch runs after the commit on
// its own goroutine so a slow gateway never stalls the caller.
func (s *Service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").
			WithDetails(map[string]any{"status": string(input.NewStatus)})
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state").
				WithDetails(map[string]any{"status": order.Status.String()})
		}

		from := order.Status
		now := s.now()
		updates := map[string]any{}

		if input.NewStatus.RequiresTracking() && order.TrackingNumber == nil {
			number := ""
			if input.TrackingNumber != nil && *input.TrackingNumber != "" {
				number = *input.TrackingNumber
			} else {
				number, err = s.generateTrackingNumber(ctx, repo)
				if err != nil {
					return err
				}
			}
			updates["tracking_number"] = number
			order.TrackingNumber = &number
		}
		if input.EstimatedDelivery != nil {
			updates["estimated_delivery"] = *input.EstimatedDelivery
			order.EstimatedDelivery = input.EstimatedDelivery
		}
		if input.NewStatus == enums.OrderStatusDelivered {
			updates["delivered_at"] = now
			order.DeliveredAt = &now
		}
		if input.NewStatus == enums.OrderStatusCancelled {
			updates["cancelled_at"] = now
			order.CancelledAt = &now
			stock := s.stock.WithTx(tx)
			for _, item := range order.Items {
				if err := stock.RestoreStock(ctx, item.ProductID, item.Qty); err != nil {
					return err
				}
			}
		}

		if err := repo.UpdateStatusFrom(ctx, order.ID, from, input.NewStatus, updates); err != nil {
			return err
		}
		event := &models.OrderTrackingEvent{
			OrderID: order.ID,
			Status:  input.NewStatus,
			Notes:   input.Notes,
			ActorID: input.ActorID,
		}
		if err := repo.InsertTrackingEvent(ctx, event); err != nil {
			return err
		}
		order.Status = input.NewStatus
		order.TrackingEvents = append(order.TrackingEvents, *event)
		updated = order

		return s.emitTransition(ctx, tx, order, from, input, now)
	})
	if err != nil {
		return nil, err
	}

	s.dispatchAfterCommit(ctx, updated)
	return updated, nil
}

// BatchTransition applies the same status to many orders. Each order
// commits or fails on its own; one failure never blocks the rest.
func (s *Service) BatchTransition(ctx context.Context, orderIDs []uuid.UUID, status enums.OrderStatus, notes *string, actorID *uuid.UUID) ([]BatchResult, error) {
	if len(orderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ids required")
	}
	if max := s.cfg.BatchTransitionMax; max > 0 && len(orderIDs) > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many orders in one batch").
			WithDetails(map[string]any{"max": max})
	}

	results := make([]BatchResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		_, err := s.Transition(ctx, TransitionInput{
			OrderID:   id,
			NewStatus: status,
			Notes:     notes,
			ActorID:   actorID,
		})
		result := BatchResult{OrderID: id, OK: err == nil}
		if err != nil {
			result.Error = err.Error()
			if s.logg != nil {
				logCtx := s.logg.WithOrderID(ctx, id.String())
				s.logg.Warn(logCtx, "batch transition skipped order")
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// Get returns the order with items and full tracking history.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.repo.FindByID(ctx, id)
}

// ListForUser pages through one customer's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return s.repo.List(ctx, ListFilter{UserID: &userID}, params)
}

// ListAll pages through every order for staff, optionally by status.
func (s *Service) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, string, error) {
	return s.repo.List(ctx, ListFilter{Status: status}, params)
}

// generateTrackingNumber builds prefix + timestamp digits + random suffix
// and retries on the unlikely collision. A number is assigned at most once
// per order and never reassigned.
func (s *Service) generateTrackingNumber(ctx context.Context, repo *Repository) (string, error) {
	prefix := s.cfg.TrackingPrefix
	if prefix == "" {
		prefix = "TRK"
	}
	for attempt := 0; attempt < 5; attempt++ {
		s.trackingMu.Lock()
		suffix := s.trackingRand.Intn(10000)
		s.trackingMu.Unlock()
		number := fmt.Sprintf("%s%s%04d", prefix, s.now().Format("20060102150405"), suffix)
		taken, err := repo.TrackingNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a tracking number")
}

func (s *Service) emitTransition(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, input TransitionInput, now time.Time) error {
	if input.NewStatus == enums.OrderStatusCancelled {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderCancelled,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				FromStatus:  from,
				CancelledAt: now,
				Reason:      derefOrEmpty(input.Notes),
			},
			Version: 1,
		})
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventOrderStatusChanged,
		AggregateType: enums.OutboxAggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			FromStatus:     from,
			ToStatus:       input.NewStatus,
			TrackingNumber: order.TrackingNumber,
			Notes:          input.Notes,
			ChangedAt:      now,
		},
		Version: 1,
	})
}

// dispatchAfterCommit hands the committed order to the notifier on a
// fresh context so request cancellation cannot clip the send window.
func (s *Service) dispatchAfterCommit(ctx context.Context, order *models.Order) {
	if s.notifier == nil || order == nil {
		return
	}
	status := order.Status
	go func() {
		defer func() {
			if r := recover(); r != nil && s.logg != nil {
				s.logg.Error(context.Background(), "notification dispatch panicked", fmt.Errorf("%v", r))
			}
		}()
		s.notifier.Dispatch(context.WithoutCancel(ctx), order, status)
	}()
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
