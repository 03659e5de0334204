package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/tally/internal/usecase"
)

// CreateTransferRequest represents a request to transfer funds between
// two accounts. Amount is a NullDecimal so "field absent" decodes
// differently from "amount": 0.
type CreateTransferRequest struct {
	SourceID      string              `json:"source_id"`
	DestinationID string              `json:"destination_id"`
	Amount        decimal.NullDecimal `json:"amount"`
}

// ToUseCaseInput converts to use case input. Business validation happens
// in the use case, not here.
func (r *CreateTransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		SourceID:      r.SourceID,
		DestinationID: r.DestinationID,
		Amount:        r.Amount,
	}
}

// SeedAccountItem represents a single account in a seed request.
type SeedAccountItem struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// SeedAccountsRequest represents a request to replace all accounts with
// a new set. An empty set seeds the server's default fixtures.
type SeedAccountsRequest struct {
	Accounts []SeedAccountItem `json:"accounts"`
}

// ToUseCaseInput converts to use case input.
func (r *SeedAccountsRequest) ToUseCaseInput() []usecase.SeedAccountInput {
	inputs := make([]usecase.SeedAccountInput, len(r.Accounts))
	for i, a := range r.Accounts {
		inputs[i] = usecase.SeedAccountInput{
			Name:    a.Name,
			Balance: a.Balance,
		}
	}
	return inputs
}
