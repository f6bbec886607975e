package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// Create persists a new pending order.
func (r *Repository) Create(ctx context.Context, o *Order) error {
	notes := []byte(o.Notes)
	if len(notes) == 0 {
		notes = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_orders
			(id, order_id, user_id, amount_minor, coins_to_credit, currency, status, payment_method, razorpay_order_id, notes, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, o.ID, o.OrderID, o.UserID, o.AmountMinor, o.CoinsToCredit, o.Currency, o.Status, o.Method, o.RzpOrderID, notes, o.ExpiresAt)
	return err
}

// GetByOrderID returns the order scoped to its owner, or nil when absent.
func (r *Repository) GetByOrderID(ctx context.Context, orderID string, userID uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, `
		SELECT * FROM payment_orders WHERE order_id = $1 AND user_id = $2
	`, orderID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByGatewayOrderID returns the order by its gateway handle, optionally
// scoped to a user. Returns nil when absent.
func (r *Repository) GetByGatewayOrderID(ctx context.Context, rzpOrderID string, userID *uuid.UUID) (*Order, error) {
	var o Order
	var err error
	if userID != nil {
		err = r.db.GetContext(ctx, &o, `
			SELECT * FROM payment_orders WHERE razorpay_order_id = $1 AND user_id = $2
		`, rzpOrderID, *userID)
	} else {
		err = r.db.GetContext(ctx, &o, `
			SELECT * FROM payment_orders WHERE razorpay_order_id = $1
		`, rzpOrderID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ClaimPendingTx locks the pending order for the given gateway handle.
// This is the single claim point shared by both confirmation paths: the
// row lock serializes concurrent confirmations, and the status predicate
// makes the loser see no row at all. Returns nil when there is no pending
// order to claim.
func (r *Repository) ClaimPendingTx(ctx context.Context, tx *sqlx.Tx, rzpOrderID string, userID *uuid.UUID) (*Order, error) {
	var o Order
	var err error
	if userID != nil {
		err = tx.GetContext(ctx, &o, `
			SELECT * FROM payment_orders
			WHERE razorpay_order_id = $1 AND user_id = $2 AND status = 'PENDING'
			FOR UPDATE
		`, rzpOrderID, *userID)
	} else {
		err = tx.GetContext(ctx, &o, `
			SELECT * FROM payment_orders
			WHERE razorpay_order_id = $1 AND status = 'PENDING'
			FOR UPDATE
		`, rzpOrderID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// MarkPaidTx applies the PENDING -> PAID transition. The status predicate
// is kept even under the row lock so a plain read-then-write can never
// finalize twice.
func (r *Repository) MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, rzpPaymentID, rzpSignature *string, webhookData []byte) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE payment_orders
		SET status = 'PAID',
		    paid_at = now(),
		    updated_at = now(),
		    razorpay_payment_id = COALESCE($2, razorpay_payment_id),
		    razorpay_signature = COALESCE($3, razorpay_signature),
		    webhook_data = COALESCE($4, webhook_data)
		WHERE id = $1 AND status = 'PENDING'
	`, id, rzpPaymentID, rzpSignature, webhookData)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkFailedTx applies the PENDING -> FAILED transition, absorbing
// duplicates (zero rows affected is not an error).
func (r *Repository) MarkFailedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, webhookData []byte) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE payment_orders
		SET status = 'FAILED',
		    updated_at = now(),
		    webhook_data = COALESCE($2, webhook_data)
		WHERE id = $1 AND status = 'PENDING'
	`, id, webhookData)
	return err
}

// CreateRedemptionTx inserts a pending redemption inside a caller tx.
func (r *Repository) CreateRedemptionTx(ctx context.Context, tx *sqlx.Tx, red *CoinRedemption) error {
	bankDetails := []byte(red.BankDetails)
	if len(bankDetails) == 0 {
		bankDetails = []byte("{}")
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO coin_redemptions
			(id, user_id, coins_redeemed, amount_minor, rate_centi, status, bank_details, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, red.ID, red.UserID, red.CoinsRedeemed, red.AmountMinor, red.RateCenti, red.Status, bankDetails, red.TransactionID)
	return err
}
