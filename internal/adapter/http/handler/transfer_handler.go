package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/tally/internal/adapter/http/dto"
	"github.com/iho/tally/internal/domain"
	"github.com/iho/tally/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.TransferResult, error)
}

// CacheInvalidator drops cached account state once a transfer has
// changed it.
type CacheInvalidator interface {
	InvalidateAccounts(ctx context.Context, ids ...string)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC  TransferService
	retrier     usecase.Retrier
	invalidator CacheInvalidator
}

// NewTransferHandler creates a new TransferHandler. retrier and
// invalidator may be nil.
func NewTransferHandler(transferUC TransferService, retrier usecase.Retrier, invalidator CacheInvalidator) *TransferHandler {
	return &TransferHandler{
		transferUC:  transferUC,
		retrier:     retrier,
		invalidator: invalidator,
	}
}

// Create executes a transfer. Transient store failures (deadlocks,
// serialization aborts) are retried here; the use case itself never
// retries.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput()

	var result *domain.TransferResult
	op := func() error {
		var err error
		result, err = h.transferUC.Transfer(r.Context(), input)
		return err
	}

	var err error
	if h.retrier != nil {
		err = h.retrier.Do(r.Context(), op)
	} else {
		err = op()
	}

	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to transfer", err.Error())

		return
	}

	if h.invalidator != nil {
		h.invalidator.InvalidateAccounts(r.Context(), input.SourceID, input.DestinationID)
	}

	writeJSON(w, http.StatusOK, dto.TransferResultFromDomain(result))
}
