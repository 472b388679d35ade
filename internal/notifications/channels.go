package notifications

import (
	"context"

	"storefront-backend/pkg/config"
	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
)

// Channel is one delivery medium. Implementations must be safe for
// concurrent use; the dispatcher calls them from multiple goroutines.
type Channel interface {
	Name() enums.NotificationChannel
	// CanSend reports whether the order carries the contact detail this
	// channel needs. A false return is a silent skip, not a failure.
	CanSend(order *models.Order) bool
	Send(ctx context.Context, order *models.Order, status enums.OrderStatus) error
}

type emailChannel struct {
	gateway *gatewayClient
	from    string
}

// NewEmailChannel builds the email channel against the configured gateway.
func NewEmailChannel(cfg config.NotificationsConfig) Channel {
	return &emailChannel{
		gateway: newGatewayClient(cfg.EmailGatewayURL, cfg.EmailAPIKey, cfg.RetryAttempts, cfg.RetryBackoff),
		from:    cfg.EmailFrom,
	}
}

func (c *emailChannel) Name() enums.NotificationChannel {
	return enums.NotificationChannelEmail
}

func (c *emailChannel) CanSend(order *models.Order) bool {
	return order.CustomerEmail != nil && *order.CustomerEmail != ""
}

func (c *emailChannel) Send(ctx context.Context, order *models.Order, status enums.OrderStatus) error {
	message := Render(order, status)
	return c.gateway.post(ctx, map[string]any{
		"from":    c.from,
		"to":      *order.CustomerEmail,
		"subject": message.Subject,
		"body":    message.Body,
	})
}

type smsChannel struct {
	gateway *gatewayClient
	sender  string
}

// NewSMSChannel builds the SMS channel against the configured gateway.
func NewSMSChannel(cfg config.NotificationsConfig) Channel {
	return &smsChannel{
		gateway: newGatewayClient(cfg.SMSGatewayURL, cfg.SMSAPIKey, cfg.RetryAttempts, cfg.RetryBackoff),
		sender:  cfg.SMSSender,
	}
}

func (c *smsChannel) Name() enums.NotificationChannel {
	return enums.NotificationChannelSMS
}

func (c *smsChannel) CanSend(order *models.Order) bool {
	return order.CustomerPhone != nil && *order.CustomerPhone != ""
}

func (c *smsChannel) Send(ctx context.Context, order *models.Order, status enums.OrderStatus) error {
	message := Render(order, status)
	return c.gateway.post(ctx, map[string]any{
		"sender": c.sender,
		"to":     *order.CustomerPhone,
		"text":   message.Body,
	})
}

type whatsappChannel struct {
	gateway *gatewayClient
}

// NewWhatsAppChannel builds the WhatsApp channel against the configured
// gateway.
func NewWhatsAppChannel(cfg config.NotificationsConfig) Channel {
	return &whatsappChannel{
		gateway: newGatewayClient(cfg.WhatsAppGatewayURL, cfg.WhatsAppAPIKey, cfg.RetryAttempts, cfg.RetryBackoff),
	}
}

func (c *whatsappChannel) Name() enums.NotificationChannel {
	return enums.NotificationChannelWhatsApp
}

func (c *whatsappChannel) CanSend(order *models.Order) bool {
	return order.CustomerPhone != nil && *order.CustomerPhone != ""
}

func (c *whatsappChannel) Send(ctx context.Context, order *models.Order, status enums.OrderStatus) error {
	message := Render(order, status)
	return c.gateway.post(ctx, map[string]any{
		"to":   *order.CustomerPhone,
		"text": message.Body,
	})
}
