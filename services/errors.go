package services

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrPayoutNotConfigured = errors.New("payout account not configured")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrValidation          = errors.New("validation failed")
	ErrAmountMismatch      = errors.New("amount does not match tip")
	ErrNegativePayout      = errors.New("fees exceed gross amount")
	ErrAlreadyRegistered   = errors.New("payout account already registered")
)
