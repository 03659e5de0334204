package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrNegativeBalance = errors.New("account balance cannot be negative")

	// Transfer errors, in precondition order. Transfer validation
	// reports the first one that applies and stops.
	ErrMissingField        = errors.New("source, destination and amount are required")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSelfTransfer        = errors.New("cannot transfer to same account")
	ErrSourceNotFound      = errors.New("source account not found")
	ErrDestinationNotFound = errors.New("destination account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
)
