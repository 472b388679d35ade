package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"storefront-backend/internal/orders"
	"storefront-backend/pkg/enums"
	"storefront-backend/pkg/logger"
)

const (
	defaultPendingExpiry   = 24 * time.Hour
	defaultExpiryBatchSize = 100
)

var expiryNote = "Cancelled automatically: payment confirmation window elapsed"

// OrderExpiryJobParams configure the stale pending order sweeper.
type OrderExpiryJobParams struct {
	Logger        *logger.Logger
	Pending       stalePendingLister
	Transitioner  orderBatchTransitioner
	PendingExpiry time.Duration
	BatchSize     int
}

type stalePendingLister interface {
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type orderBatchTransitioner interface {
	BatchTransition(ctx context.Context, orderIDs []uuid.UUID, status enums.OrderStatus, notes *string, actorID *uuid.UUID) ([]orders.BatchResult, error)
}

// NewOrderExpiryJob builds the cron job that cancels pending orders whose
// payment confirmation window has elapsed. Cancelling through the state
// machine restores stock and emits the cancellation event per order.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pending == nil {
		return nil, fmt.Errorf("pending order lister required")
	}
	if params.Transitioner == nil {
		return nil, fmt.Errorf("order transitioner required")
	}
	expiry := params.PendingExpiry
	if expiry <= 0 {
		expiry = defaultPendingExpiry
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpiryBatchSize
	}
	return &orderExpiryJob{
		logg:         params.Logger,
		pending:      params.Pending,
		transitioner: params.Transitioner,
		expiry:       expiry,
		batchSize:    batchSize,
		now:          time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg         *logger.Logger
	pending      stalePendingLister
	transitioner orderBatchTransitioner
	expiry       time.Duration
	batchSize    int
	now          func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.expiry)
	cancelled := 0
	failed := 0
	var errs []error

	for {
		ids, err := j.pending.ListStalePending(ctx, cutoff, j.batchSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("list stale pending orders: %w", err))
			break
		}
		if len(ids) == 0 {
			break
		}

		results, err := j.transitioner.BatchTransition(ctx, ids, enums.OrderStatusCancelled, &expiryNote, nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("cancel stale pending orders: %w", err))
			break
		}
		batchFailed := 0
		for _, result := range results {
			if result.OK {
				cancelled++
				continue
			}
			failed++
			batchFailed++
			logCtx := j.logg.WithOrderID(ctx, result.OrderID.String())
			j.logg.Warn(logCtx, "stale order cancellation failed: "+result.Error)
		}
		// A batch where nothing moved would re-read the same rows forever.
		if batchFailed == len(results) {
			break
		}
		if len(ids) < j.batchSize {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"cancelled": cancelled,
		"failed":    failed,
	})
	j.logg.Info(logCtx, "order expiry sweep complete")
	return multierr.Combine(errs...)
}
