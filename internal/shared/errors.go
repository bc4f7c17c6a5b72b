package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAmount is returned by ledger operations on non-positive amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrOverpaymentLimit is returned when a payment exceeds twice the current debt.
	ErrOverpaymentLimit = errors.New("payment exceeds twice the current debt")
	// ErrValidationFailed wraps save-gate violations surfaced to the operator.
	ErrValidationFailed = errors.New("validation failed")
	// ErrDuplicate indicates a unique constraint conflict.
	ErrDuplicate = errors.New("duplicate entry")
)
