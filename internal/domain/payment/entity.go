package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/coinly/coinly-api/internal/domain/wallet"
)

// Status represents payment order status
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

// IsTerminal reports whether no further transition is allowed except
// PAID -> REFUNDED.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// CanTransition reports whether the status change is allowed by the
// order state machine.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusPaid || to == StatusFailed || to == StatusCancelled
	case StatusPaid:
		return to == StatusRefunded
	}
	return false
}

// Method represents how the order is meant to be paid
type Method string

const (
	MethodCheckout Method = "CHECKOUT"
	MethodQRCode   Method = "QR_CODE"
	MethodUPI      Method = "UPI"
)

// Order is a coin purchase attempt. OrderID is the client-facing
// identifier; RzpOrderID is the handle issued by the gateway.
type Order struct {
	ID            uuid.UUID             `db:"id" json:"-"`
	OrderID       string                `db:"order_id" json:"order_id"`
	UserID        uuid.UUID             `db:"user_id" json:"-"`
	AmountMinor   int64                 `db:"amount_minor" json:"-"`
	CoinsToCredit int64                 `db:"coins_to_credit" json:"coins_to_credit"`
	Currency      string                `db:"currency" json:"currency"`
	Status        Status                `db:"status" json:"status"`
	Method        Method                `db:"payment_method" json:"payment_method"`
	RzpOrderID    sql.NullString        `db:"razorpay_order_id" json:"-"`
	RzpPaymentID  sql.NullString        `db:"razorpay_payment_id" json:"-"`
	RzpSignature  sql.NullString        `db:"razorpay_signature" json:"-"`
	Notes         wallet.JSONRawMessage `db:"notes" json:"-"`
	WebhookData   wallet.JSONRawMessage `db:"webhook_data" json:"-"`
	CreatedAt     time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time             `db:"updated_at" json:"updated_at"`
	ExpiresAt     time.Time             `db:"expires_at" json:"expires_at"`
	PaidAt        sql.NullTime          `db:"paid_at" json:"-"`
}

// IsExpired reports whether a pending order is past its expiry window.
func (o *Order) IsExpired(now time.Time) bool {
	return o.Status == StatusPending && now.After(o.ExpiresAt)
}

// RedemptionStatus represents coin redemption request status
type RedemptionStatus string

const (
	RedemptionPending   RedemptionStatus = "PENDING"
	RedemptionApproved  RedemptionStatus = "APPROVED"
	RedemptionPaid      RedemptionStatus = "PAID"
	RedemptionRejected  RedemptionStatus = "REJECTED"
	RedemptionCancelled RedemptionStatus = "CANCELLED"
)

// CoinRedemption is a coin-to-money payout request.
type CoinRedemption struct {
	ID            uuid.UUID             `db:"id" json:"redemption_id"`
	UserID        uuid.UUID             `db:"user_id" json:"-"`
	CoinsRedeemed int64                 `db:"coins_redeemed" json:"coins_redeemed"`
	AmountMinor   int64                 `db:"amount_minor" json:"-"`
	RateCenti     int64                 `db:"rate_centi" json:"-"`
	Status        RedemptionStatus      `db:"status" json:"status"`
	BankDetails   wallet.JSONRawMessage `db:"bank_details" json:"-"`
	AdminNotes    sql.NullString        `db:"admin_notes" json:"-"`
	TransactionID uuid.NullUUID         `db:"transaction_id" json:"-"`
	RequestedAt   time.Time             `db:"requested_at" json:"requested_at"`
	ApprovedAt    sql.NullTime          `db:"approved_at" json:"-"`
	PaidAt        sql.NullTime          `db:"paid_at" json:"-"`
}
