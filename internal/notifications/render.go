package notifications

import (
	"fmt"

	"storefront-backend/pkg/db/models"
	"storefront-backend/pkg/enums"
)

// Message is a rendered notification ready for a gateway.
type Message struct {
	Subject string
	Body    string
}

var statusLines = map[string]map[enums.OrderStatus]string{
	"en": {
		enums.OrderStatusPending:        "We received your order and will confirm it shortly.",
		enums.OrderStatusConfirmed:      "Your order has been confirmed.",
		enums.OrderStatusProcessing:     "Your order is being prepared.",
		enums.OrderStatusShipped:        "Your order has shipped.",
		enums.OrderStatusOutForDelivery: "Your order is out for delivery.",
		enums.OrderStatusDelivered:      "Your order has been delivered. Enjoy!",
		enums.OrderStatusCancelled:      "Your order has been cancelled.",
	},
	"es": {
		enums.OrderStatusPending:        "Hemos recibido tu pedido y lo confirmaremos en breve.",
		enums.OrderStatusConfirmed:      "Tu pedido ha sido confirmado.",
		enums.OrderStatusProcessing:     "Tu pedido se está preparando.",
		enums.OrderStatusShipped:        "Tu pedido ha sido enviado.",
		enums.OrderStatusOutForDelivery: "Tu pedido está en reparto.",
		enums.OrderStatusDelivered:      "Tu pedido ha sido entregado. ¡Que lo disfrutes!",
		enums.OrderStatusCancelled:      "Tu pedido ha sido cancelado.",
	},
}

var subjects = map[string]string{
	"en": "Order %s update",
	"es": "Actualización del pedido %s",
}

var trackingLines = map[string]string{
	"en": "Track your shipment with number %s.",
	"es": "Sigue tu envío con el número %s.",
}

// Render builds the channel-agnostic message for a status change in the
// order's language, falling back to English for unknown languages.
func Render(order *models.Order, status enums.OrderStatus) Message {
	language := order.Language
	lines, ok := statusLines[language]
	if !ok {
		language = "en"
		lines = statusLines[language]
	}

	shortID := order.ID.String()
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	body := fmt.Sprintf("%s %s", greeting(language, order.CustomerName), lines[status])
	if status.RequiresTracking() && order.TrackingNumber != nil {
		body += " " + fmt.Sprintf(trackingLines[language], *order.TrackingNumber)
	}
	return Message{
		Subject: fmt.Sprintf(subjects[language], shortID),
		Body:    body,
	}
}

func greeting(language, name string) string {
	switch language {
	case "es":
		return fmt.Sprintf("Hola %s,", name)
	default:
		return fmt.Sprintf("Hi %s,", name)
	}
}
