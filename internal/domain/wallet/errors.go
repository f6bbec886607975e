package wallet

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient coin balance")
	ErrWalletNotFound      = errors.New("wallet not found")
)
