package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tally/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransferResponse represents a completed transfer in API responses.
type TransferResponse struct {
	Message                 string          `json:"message"`
	SourceBalanceAfter      decimal.Decimal `json:"source_balance_after"`
	DestinationBalanceAfter decimal.Decimal `json:"destination_balance_after"`
}

// TransferResultFromDomain converts a domain transfer result to response.
func TransferResultFromDomain(r *domain.TransferResult) *TransferResponse {
	return &TransferResponse{
		Message:                 r.Message,
		SourceBalanceAfter:      r.SourceBalanceAfter,
		DestinationBalanceAfter: r.DestinationBalanceAfter,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
