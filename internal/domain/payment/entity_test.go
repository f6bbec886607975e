package payment_test

import (
	"testing"
	"time"

	"github.com/coinly/coinly-api/internal/domain/payment"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to payment.Status }{
		{payment.StatusPending, payment.StatusPaid},
		{payment.StatusPending, payment.StatusFailed},
		{payment.StatusPending, payment.StatusCancelled},
		{payment.StatusPaid, payment.StatusRefunded},
	}
	for _, tc := range allowed {
		if !payment.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to payment.Status }{
		{payment.StatusPaid, payment.StatusPending},
		{payment.StatusPaid, payment.StatusFailed},
		{payment.StatusFailed, payment.StatusPaid},
		{payment.StatusCancelled, payment.StatusPaid},
		{payment.StatusRefunded, payment.StatusPaid},
		{payment.StatusRefunded, payment.StatusPending},
		{payment.StatusPending, payment.StatusRefunded},
	}
	for _, tc := range forbidden {
		if payment.CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be forbidden", tc.from, tc.to)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if payment.StatusPending.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}
	for _, s := range []payment.Status{
		payment.StatusPaid, payment.StatusFailed, payment.StatusCancelled, payment.StatusRefunded,
	} {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}

func TestOrderIsExpired(t *testing.T) {
	now := time.Now()

	pending := &payment.Order{Status: payment.StatusPending, ExpiresAt: now.Add(-time.Minute)}
	if !pending.IsExpired(now) {
		t.Error("pending order past its deadline must be expired")
	}

	fresh := &payment.Order{Status: payment.StatusPending, ExpiresAt: now.Add(time.Hour)}
	if fresh.IsExpired(now) {
		t.Error("pending order within its window must not be expired")
	}

	// Settled orders never expire, regardless of the deadline.
	paid := &payment.Order{Status: payment.StatusPaid, ExpiresAt: now.Add(-time.Hour)}
	if paid.IsExpired(now) {
		t.Error("paid order must not report expired")
	}
}
