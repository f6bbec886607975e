package razorpay_test

import (
	"testing"

	"github.com/coinly/coinly-api/internal/pkg/razorpay"
)

func TestParseWebhookPaymentCaptured(t *testing.T) {
	body := []byte(`{
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_abc",
					"order_id": "order_rzp123",
					"amount": 10000,
					"status": "captured",
					"method": "upi"
				}
			}
		},
		"created_at": 1724900000
	}`)

	event, err := razorpay.ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if event.Event != razorpay.EventPaymentCaptured {
		t.Fatalf("event = %q", event.Event)
	}
	if got := event.GatewayOrderID(); got != "order_rzp123" {
		t.Errorf("GatewayOrderID() = %q, want order_rzp123", got)
	}
	if got := event.GatewayPaymentID(); got != "pay_abc" {
		t.Errorf("GatewayPaymentID() = %q, want pay_abc", got)
	}
}

func TestParseWebhookOrderPaid(t *testing.T) {
	body := []byte(`{
		"event": "order.paid",
		"payload": {
			"order": {
				"entity": {"id": "order_rzp456", "amount": 5000, "status": "paid"}
			},
			"payment": {
				"entity": {"id": "pay_def", "order_id": "order_rzp456"}
			}
		}
	}`)

	event, err := razorpay.ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if got := event.GatewayOrderID(); got != "order_rzp456" {
		t.Errorf("GatewayOrderID() = %q, want order_rzp456", got)
	}
}

func TestParseWebhookOrderPaidFallsBackToPaymentEntity(t *testing.T) {
	body := []byte(`{
		"event": "order.paid",
		"payload": {
			"payment": {
				"entity": {"id": "pay_def", "order_id": "order_rzp789"}
			}
		}
	}`)

	event, err := razorpay.ParseWebhook(body)
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if got := event.GatewayOrderID(); got != "order_rzp789" {
		t.Errorf("GatewayOrderID() = %q, want order_rzp789", got)
	}
}

func TestParseWebhookRejectsGarbage(t *testing.T) {
	if _, err := razorpay.ParseWebhook([]byte("not json")); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
	if _, err := razorpay.ParseWebhook([]byte(`{"payload":{}}`)); err == nil {
		t.Fatal("expected error for missing event")
	}
}

func TestGatewayOrderIDUnknownEvent(t *testing.T) {
	event, err := razorpay.ParseWebhook([]byte(`{"event":"refund.processed"}`))
	if err != nil {
		t.Fatalf("ParseWebhook: %v", err)
	}
	if got := event.GatewayOrderID(); got != "" {
		t.Errorf("GatewayOrderID() = %q, want empty", got)
	}
}
