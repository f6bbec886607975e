package wallet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypePurchase    TransactionType = "purchase"
	TransactionTypeFeatureBuy  TransactionType = "feature_buy"
	TransactionTypeRedemption  TransactionType = "redemption"
	TransactionTypeBonus       TransactionType = "bonus"
	TransactionTypeRefund      TransactionType = "refund"
	TransactionTypeAdminCredit TransactionType = "admin_credit"
	TransactionTypeAdminDebit  TransactionType = "admin_debit"
)

// Wallet is a user's coin balance with lifetime counters.
// Invariant: CoinBalance == TotalCoinsEarned - TotalCoinsSpent.
type Wallet struct {
	UserID               uuid.UUID `db:"user_id" json:"user_id"`
	CoinBalance          int64     `db:"coin_balance" json:"coin_balance"`
	TotalCoinsEarned     int64     `db:"total_coins_earned" json:"total_coins_earned"`
	TotalCoinsSpent      int64     `db:"total_coins_spent" json:"total_coins_spent"`
	TotalMoneySpentMinor int64     `db:"total_money_spent_minor" json:"-"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// TotalMoneySpent renders the lifetime money counter as a two-decimal string.
func (w *Wallet) TotalMoneySpent() string {
	return fmt.Sprintf("%d.%02d", w.TotalMoneySpentMinor/100, w.TotalMoneySpentMinor%100)
}

// CoinTransaction is an immutable ledger row. Amount is positive for
// credits and negative for debits; BalanceAfter snapshots the wallet
// balance after this mutation was applied.
type CoinTransaction struct {
	ID           uuid.UUID       `db:"id" json:"transaction_id"`
	UserID       uuid.UUID       `db:"user_id" json:"-"`
	Type         TransactionType `db:"type" json:"transaction_type"`
	Amount       int64           `db:"amount" json:"amount"`
	BalanceAfter int64           `db:"balance_after" json:"balance_after"`
	ReferenceID  *string         `db:"reference_id" json:"reference_id,omitempty"`
	Description  string          `db:"description" json:"description"`
	Metadata     JSONRawMessage  `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// JSONRawMessage handles NULL json fields from DB
type JSONRawMessage []byte

func (j *JSONRawMessage) Scan(src any) error {
	if src == nil {
		*j = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
	case string:
		*j = []byte(v)
	default:
		return fmt.Errorf("unsupported type: %T", src)
	}
	return nil
}

func (j JSONRawMessage) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}
