package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a ledger account that holds a non-negative balance.
type Account struct {
	ID        string
	Name      string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if account can be debited by amount without
// its balance going negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	newBalance := a.Balance.Sub(amount)
	if newBalance.IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
