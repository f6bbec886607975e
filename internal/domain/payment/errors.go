package payment

import "errors"

var (
	// ErrInvalidAmount is returned for unparsable amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAmountOutOfRange is returned when the amount violates the
	// configured purchase bounds
	ErrAmountOutOfRange = errors.New("amount out of allowed range")

	// ErrOrderNotFound is returned when no order matches the lookup for
	// the requesting user
	ErrOrderNotFound = errors.New("payment order not found")

	// ErrOrderExpired is returned when confirmation arrives for a stale
	// pending order
	ErrOrderExpired = errors.New("payment order expired")

	// ErrInvalidSignature is returned when a cryptographic check fails;
	// no state is mutated
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrGateway is returned when the payment gateway call fails; the
	// order is not persisted
	ErrGateway = errors.New("payment gateway error")

	// ErrRedemptionBelowMinimum is returned when a redemption request is
	// under the configured minimum
	ErrRedemptionBelowMinimum = errors.New("redemption below minimum coins")
)
