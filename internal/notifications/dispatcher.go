package notifications

import (
	"context"
	"fmt"
	"time"

	"storefront-backend/pkg/config"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/metrics"
)

// Outcome reports what happened on a single channel.
type Outcome struct {
	Channel enums.NotificationChannel `json:"channel"`
	Sent    bool                      `json:"sent"`
	Skipped bool                      `json:"skipped"`
	Error   string                    `json:"error,omitempty"`
}

// Dispatcher fans a status change out to every configured channel.
// Channels are attempted independently: one failing, panicking or slow
// channel never blocks the others, and no failure ever reaches the
// transition that triggered the dispatch.
type Dispatcher struct {
	channels []Channel
	timeout  time.Duration
	metrics  *metrics.DispatchMetrics
	logg     *logger.Logger
}

// NewDispatcher builds the dispatcher. A nil metrics handle disables
// counting, not dispatching.
func NewDispatcher(channels []Channel, cfg config.NotificationsConfig, dispatchMetrics *metrics.DispatchMetrics, logg *logger.Logger) *Dispatcher {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		channels: channels,
		timeout:  timeout,
		metrics:  dispatchMetrics,
		logg:     logg,
	}
}

// DefaultChannels wires the standard email, SMS and WhatsApp channels.
func DefaultChannels(cfg config.NotificationsConfig) []Channel {
	return []Channel{
		NewEmailChannel(cfg),
		NewSMSChannel(cfg),
		NewWhatsAppChannel(cfg),
	}
}

// Dispatch sends the status update over every channel and reports the
// per-channel outcomes. It never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, order *models.Order, status enums.OrderStatus) []Outcome {
	outcomes := make([]Outcome, 0, len(d.channels))
	for _, channel := range d.channels {
		outcomes = append(outcomes, d.dispatchOne(ctx, channel, order, status))
	}
	return outcomes
}

func (d *Dispatcher) dispatchOne(ctx context.Context, channel Channel, order *models.Order, status enums.OrderStatus) (outcome Outcome) {
	name := channel.Name()
	outcome = Outcome{Channel: name}

	defer func() {
		if r := recover(); r != nil {
			outcome.Sent = false
			outcome.Error = fmt.Sprintf("channel panicked: %v", r)
			d.metrics.IncFailed(name.String())
			if d.logg != nil {
				d.logg.Error(ctx, "notification channel panicked", fmt.Errorf("%v", r))
			}
		}
	}()

	if !channel.CanSend(order) {
		outcome.Skipped = true
		d.metrics.IncSkipped(name.String())
		return outcome
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := channel.Send(sendCtx, order, status)
	d.metrics.ObserveSend(name.String(), time.Since(start))
	if err != nil {
		outcome.Error = err.Error()
		d.metrics.IncFailed(name.String())
		if d.logg != nil {
			logCtx := d.logg.WithFields(ctx, map[string]any{
				"channel":  name.String(),
				"order_id": order.ID.String(),
				"status":   status.String(),
			})
			d.logg.Error(logCtx, "notification send failed", err)
		}
		return outcome
	}

	outcome.Sent = true
	d.metrics.IncSent(name.String())
	return outcome
}
