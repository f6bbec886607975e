package wallet

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

// GetOrCreate returns the user's wallet, creating a zero-balance one on
// first access. Concurrent first access is resolved by the primary key:
// the losing insert is a no-op and both callers fetch the same row.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, err
	}

	w := &Wallet{}
	if err := r.db.GetContext(ctx, w, `SELECT * FROM user_wallets WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	return w, nil
}

// Get returns the wallet without creating it.
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	w := &Wallet{}
	err := r.db.GetContext(ctx, w, `SELECT * FROM user_wallets WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *Repository) BeginTxx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// lockWallet ensures the wallet row exists and takes a row lock on it,
// serializing concurrent mutations per user.
func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, err
	}

	w := &Wallet{}
	if err := tx.GetContext(ctx, w, `SELECT * FROM user_wallets WHERE user_id = $1 FOR UPDATE`, userID); err != nil {
		return nil, err
	}
	return w, nil
}

func (r *Repository) insertTransaction(ctx context.Context, tx *sqlx.Tx, entry *CoinTransaction) error {
	metadata := []byte(entry.Metadata)
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO coin_transactions (id, user_id, type, amount, balance_after, reference_id, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
	`, entry.ID, entry.UserID, string(entry.Type), entry.Amount, entry.BalanceAfter, entry.ReferenceID, entry.Description, metadata)
	return err
}

// CreditTx applies a credit inside a caller-provided transaction. The
// wallet update and its ledger entry commit or roll back together.
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	newBalance := w.CoinBalance + amount
	if _, err := tx.ExecContext(ctx, `
		UPDATE user_wallets
		SET coin_balance = $1, total_coins_earned = total_coins_earned + $2, updated_at = now()
		WHERE user_id = $3
	`, newBalance, amount, userID); err != nil {
		return nil, err
	}

	entry := &CoinTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: newBalance,
		ReferenceID:  referenceID,
		Description:  description,
	}
	if err := r.insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// DebitTx applies a debit inside a caller-provided transaction. Returns
// ErrInsufficientBalance without mutating anything when the balance is
// too low.
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	w, err := r.lockWallet(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	if w.CoinBalance < amount {
		return nil, ErrInsufficientBalance
	}

	newBalance := w.CoinBalance - amount
	if _, err := tx.ExecContext(ctx, `
		UPDATE user_wallets
		SET coin_balance = $1, total_coins_spent = total_coins_spent + $2, updated_at = now()
		WHERE user_id = $3
	`, newBalance, amount, userID); err != nil {
		return nil, err
	}

	entry := &CoinTransaction{
		ID:           uuid.New(),
		UserID:       userID,
		Type:         txType,
		Amount:       -amount,
		BalanceAfter: newBalance,
		ReferenceID:  referenceID,
		Description:  description,
	}
	if err := r.insertTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// AddMoneySpentTx bumps the lifetime money counter inside a caller-provided
// transaction. The wallet row must already be locked by the same tx.
func (r *Repository) AddMoneySpentTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amountMinor int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE user_wallets
		SET total_money_spent_minor = total_money_spent_minor + $1, updated_at = now()
		WHERE user_id = $2
	`, amountMinor, userID)
	return err
}

// Credit applies a credit in its own transaction.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	tx, err := r.BeginTxx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := r.CreditTx(ctx, tx, userID, amount, txType, referenceID, description)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit applies a debit in its own transaction.
func (r *Repository) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	tx, err := r.BeginTxx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entry, err := r.DebitTx(ctx, tx, userID, amount, txType, referenceID, description)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListTransactions returns the user's ledger, newest first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]CoinTransaction, error) {
	var entries []CoinTransaction
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM coin_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return entries, err
}

// CountTransactions returns the number of ledger rows for a user.
func (r *Repository) CountTransactions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM coin_transactions WHERE user_id = $1`, userID)
	return count, err
}
