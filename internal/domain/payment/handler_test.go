package payment_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/coinly/coinly-api/internal/domain/payment"
	"github.com/coinly/coinly-api/internal/pkg/razorpay"
)

func TestWebhookEndpoint(t *testing.T) {
	db := setupPaymentTestDB(t)
	defer cleanupPaymentTestDB(db)

	svc, walletSvc := newTestService(t, db, &fakeGateway{})
	handler := payment.NewHandler(svc)
	router := handler.WebhookRoutes()

	userID := uuid.New()
	result, err := svc.CreateOrder(context.Background(), userID, "100.00", payment.ClientMeta{})
	requirePaymentNoError(t, err)
	rzpOrderID := result.Order.RzpOrderID.String

	t.Run("bad signature is rejected", func(t *testing.T) {
		body := capturedWebhook(rzpOrderID, "pay_http")
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("X-Razorpay-Signature", "deadbeef")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("valid delivery settles the order", func(t *testing.T) {
		body := capturedWebhook(rzpOrderID, "pay_http")
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("X-Razorpay-Signature", razorpay.SignWebhook(testWebhookSecret, body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}

		wlt, err := walletSvc.GetOrCreate(context.Background(), userID)
		requirePaymentNoError(t, err)
		if wlt.CoinBalance != 100 {
			t.Fatalf("expected 100 coins after webhook, got %d", wlt.CoinBalance)
		}
	})

	t.Run("redelivery is acknowledged without a second credit", func(t *testing.T) {
		body := capturedWebhook(rzpOrderID, "pay_http")
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.Header.Set("X-Razorpay-Signature", razorpay.SignWebhook(testWebhookSecret, body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 on redelivery, got %d", w.Code)
		}

		wlt, err := walletSvc.GetOrCreate(context.Background(), userID)
		requirePaymentNoError(t, err)
		if wlt.CoinBalance != 100 {
			t.Fatalf("redelivery changed balance: %d", wlt.CoinBalance)
		}
	})
}
