package wallet

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// GetOrCreate returns the user's wallet, creating it on first access.
func (s *Service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// Credit adds coins to the wallet and appends the ledger entry.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	entry, err := s.repo.Credit(ctx, userID, amount, txType, referenceID, description)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("type", string(txType)).
		Int64("balance_after", entry.BalanceAfter).
		Msg("wallet credit applied")
	return entry, nil
}

// Debit removes coins from the wallet, failing with ErrInsufficientBalance
// when the balance cannot cover the amount.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	entry, err := s.repo.Debit(ctx, userID, amount, txType, referenceID, description)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("type", string(txType)).
		Int64("balance_after", entry.BalanceAfter).
		Msg("wallet debit applied")
	return entry, nil
}

// CreditTx is Credit running inside a caller-provided transaction, for
// operations that must be atomic with another state change.
func (s *Service) CreditTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.CreditTx(ctx, tx, userID, amount, txType, referenceID, description)
}

// DebitTx is Debit running inside a caller-provided transaction.
func (s *Service) DebitTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount int64, txType TransactionType, referenceID *string, description string) (*CoinTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.DebitTx(ctx, tx, userID, amount, txType, referenceID, description)
}

// AddMoneySpentTx bumps the lifetime money counter inside a caller tx.
func (s *Service) AddMoneySpentTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amountMinor int64) error {
	if amountMinor < 0 {
		return ErrInvalidAmount
	}
	return s.repo.AddMoneySpentTx(ctx, tx, userID, amountMinor)
}

// ListTransactions returns the user's ledger history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]CoinTransaction, error) {
	return s.repo.ListTransactions(ctx, userID, limit, offset)
}
