package razorpay

import (
	"encoding/json"
	"fmt"
)

// Webhook events the backend reconciles. Anything else is acknowledged
// and ignored so the gateway stops retrying.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

// PaymentEntity is the nested payment object of a webhook payload.
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
	Method  string `json:"method"`
}

// OrderEntity is the nested order object of a webhook payload.
type OrderEntity struct {
	ID         string `json:"id"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	Status     string `json:"status"`
	Receipt    string `json:"receipt"`
}

// WebhookEvent represents a parsed webhook POST body.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity OrderEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

// ParseWebhook decodes a raw webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("webhook payload has no event")
	}
	return &event, nil
}

// GatewayOrderID extracts the gateway order handle for the event, or ""
// when the event carries none.
func (e *WebhookEvent) GatewayOrderID() string {
	switch e.Event {
	case EventPaymentCaptured:
		return e.Payload.Payment.Entity.OrderID
	case EventOrderPaid:
		if id := e.Payload.Order.Entity.ID; id != "" {
			return id
		}
		return e.Payload.Payment.Entity.OrderID
	}
	return ""
}

// GatewayPaymentID extracts the gateway payment handle, if present.
func (e *WebhookEvent) GatewayPaymentID() string {
	return e.Payload.Payment.Entity.ID
}
