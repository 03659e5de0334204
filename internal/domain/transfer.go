package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TransferRequest represents a request to move funds between two accounts.
// Amount is a NullDecimal so an absent amount is distinguishable from zero.
type TransferRequest struct {
	SourceID      string
	DestinationID string
	Amount        decimal.NullDecimal
}

// Validate checks request-level preconditions in a fixed order and
// returns the first violation. It never touches storage.
func (r *TransferRequest) Validate() error {
	if r.SourceID == "" || r.DestinationID == "" || !r.Amount.Valid {
		return ErrMissingField
	}

	if r.Amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if r.SourceID == r.DestinationID {
		return ErrSelfTransfer
	}

	return nil
}

// TransferResult is the outcome of a completed transfer.
type TransferResult struct {
	Message                 string
	SourceBalanceAfter      decimal.Decimal
	DestinationBalanceAfter decimal.Decimal
}

// TransferMessage builds the human-readable confirmation for a completed
// transfer. It names the accounts, not their IDs.
func TransferMessage(amount decimal.Decimal, source, destination *Account) string {
	return fmt.Sprintf("Transferred %s from %s to %s", amount, source.Name, destination.Name)
}
