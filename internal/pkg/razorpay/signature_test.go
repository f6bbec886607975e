package razorpay_test

import (
	"strings"
	"testing"

	"github.com/coinly/coinly-api/internal/pkg/razorpay"
)

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test_secret"
	orderID := "order_abc123"
	paymentID := "pay_xyz789"

	sig := razorpay.SignPayment(secret, orderID, paymentID)

	if !razorpay.VerifyPaymentSignature(secret, orderID, paymentID, sig) {
		t.Fatal("valid signature rejected")
	}
	if !razorpay.VerifyPaymentSignature(secret, orderID, paymentID, strings.ToUpper(sig)) {
		t.Fatal("case-insensitive hex comparison failed")
	}
}

func TestVerifyPaymentSignatureRejectsTampering(t *testing.T) {
	secret := "test_secret"
	sig := razorpay.SignPayment(secret, "order_abc123", "pay_xyz789")

	cases := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
	}{
		{"wrong order", "order_other", "pay_xyz789", sig},
		{"wrong payment", "order_abc123", "pay_other", sig},
		{"corrupted signature", "order_abc123", "pay_xyz789", sig[:len(sig)-1] + "0"},
		{"empty signature", "order_abc123", "pay_xyz789", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if razorpay.VerifyPaymentSignature(secret, tc.orderID, tc.paymentID, tc.signature) {
				t.Fatal("tampered signature accepted")
			}
		})
	}
}

func TestVerifyPaymentSignatureDifferentSecret(t *testing.T) {
	sig := razorpay.SignPayment("secret_a", "order_1", "pay_1")
	if razorpay.VerifyPaymentSignature("secret_b", "order_1", "pay_1", sig) {
		t.Fatal("signature accepted under wrong secret")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "webhook_secret"
	body := []byte(`{"event":"payment.captured","payload":{}}`)

	sig := razorpay.SignWebhook(secret, body)

	if !razorpay.VerifyWebhookSignature(secret, body, sig) {
		t.Fatal("valid webhook signature rejected")
	}

	// Any change to the raw body must invalidate the signature.
	tampered := []byte(`{"event":"payment.captured","payload":{ }}`)
	if razorpay.VerifyWebhookSignature(secret, tampered, sig) {
		t.Fatal("signature accepted for modified body")
	}

	if razorpay.VerifyWebhookSignature("", body, sig) {
		t.Fatal("signature accepted with empty secret")
	}
}
