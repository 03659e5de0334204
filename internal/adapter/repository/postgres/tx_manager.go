package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/tally/internal/usecase"
)

// txBeginner is the slice of pgxpool.Pool the manager needs; pgxmock
// satisfies it in tests.
type txBeginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager on a pgx pool.
type TxManager struct {
	db txBeginner
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManager(pool)
}

func newTxManager(db txBeginner) *TxManager {
	return &TxManager{db: db}
}

// Begin opens a transaction. The caller owns it: every row lock taken
// through it is held until Commit or Rollback.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx adapts pgx.Tx to usecase.Transaction.
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// PgxTx exposes the wrapped transaction so repositories in this
// package can run statements on it.
func (t *Tx) PgxTx() pgx.Tx { return t.tx }
