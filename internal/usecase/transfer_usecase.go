package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tally/internal/domain"
	"github.com/iho/tally/internal/infrastructure/metrics"
)

// DefaultTransactionTimeout bounds every store transaction. A transfer
// holds row locks until commit, so it must not run unbounded.
const DefaultTransactionTimeout = 10 * time.Second

// TransferUseCase moves funds between two accounts.
type TransferUseCase struct {
	txManager    TransactionManager
	accountStore AccountStore
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(
	txManager TransactionManager,
	accountStore AccountStore,
	m *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		accountStore: accountStore,
		metrics:      m,
	}
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	SourceID      string
	DestinationID string
	Amount        decimal.NullDecimal
}

// Transfer debits the source account and credits the destination account.
//
// Preconditions are checked in a fixed order and the first violation is
// returned: required fields, positive amount, distinct accounts, source
// exists, destination exists, sufficient source balance. Request-level
// checks never touch the store.
//
// Both balance writes happen in one transaction; a failure after the debit
// rolls the debit back. Accounts are locked in request order (source first),
// so opposing concurrent transfers can deadlock in the database. Those abort
// with a retryable error, and retrying is the caller's job, never this
// method's.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.TransferResult, error) {
	start := time.Now()

	request := &domain.TransferRequest{
		SourceID:      input.SourceID,
		DestinationID: input.DestinationID,
		Amount:        input.Amount,
	}

	// 1. Validate the request before starting a transaction.
	if err := request.Validate(); err != nil {
		uc.recordError(err)
		return nil, err
	}

	amount := input.Amount.Decimal

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 2. Begin transaction.
	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 3. Lock source, then destination.
	source, err := uc.accountStore.GetByIDForUpdate(txCtx, tx, input.SourceID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			err = domain.ErrSourceNotFound
		}
		uc.recordError(err)
		return nil, err
	}

	destination, err := uc.accountStore.GetByIDForUpdate(txCtx, tx, input.DestinationID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			err = domain.ErrDestinationNotFound
		}
		uc.recordError(err)
		return nil, err
	}

	// 4. Validate debit.
	if err := source.ValidateDebit(amount); err != nil {
		uc.recordError(err)
		return nil, err
	}

	// 5. Write source, then destination.
	now := time.Now().UTC()

	source.Balance = source.ApplyDebit(amount)
	source.UpdatedAt = now
	if err := uc.accountStore.Save(txCtx, tx, source); err != nil {
		return nil, err
	}

	destination.Balance = destination.ApplyCredit(amount)
	destination.UpdatedAt = now
	if err := uc.accountStore.Save(txCtx, tx, destination); err != nil {
		return nil, err
	}

	// 6. Commit transaction.
	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.TransfersCompleted.Inc()
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
		amountF, _ := amount.Float64()
		uc.metrics.TransferAmount.Observe(amountF)
	}

	return &domain.TransferResult{
		Message:                 domain.TransferMessage(amount, source, destination),
		SourceBalanceAfter:      source.Balance,
		DestinationBalanceAfter: destination.Balance,
	}, nil
}

func (uc *TransferUseCase) recordError(err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.TransferErrors.WithLabelValues(metrics.TransferErrorReason(err)).Inc()
}
