package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignPayment computes the checkout verification signature:
// HMAC-SHA256(keySecret, "<order_id>|<payment_id>") hex-encoded.
func SignPayment(keySecret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature validates the signature posted back by the checkout
// client after a successful payment.
func VerifyPaymentSignature(keySecret, orderID, paymentID, signature string) bool {
	if keySecret == "" || signature == "" {
		return false
	}
	return verifyHex(SignPayment(keySecret, orderID, paymentID), signature)
}

// SignWebhook computes the webhook signature over the raw request body.
func SignWebhook(webhookSecret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature validates the X-Razorpay-Signature header against
// the raw webhook body.
func VerifyWebhookSignature(webhookSecret string, body []byte, signature string) bool {
	if webhookSecret == "" || signature == "" {
		return false
	}
	return verifyHex(SignWebhook(webhookSecret, body), signature)
}

func verifyHex(expectedHex, receivedHex string) bool {
	expected := strings.ToLower(strings.TrimSpace(expectedHex))
	received := strings.ToLower(strings.TrimSpace(receivedHex))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}
