package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/tally/internal/domain"
	"github.com/iho/tally/internal/usecase"
)

// Check constraint violation, raised when an update would take a
// balance below zero.
const pgErrCheckViolation = "23514"

const (
	getAccountSQL = `
SELECT id, name, balance, created_at, updated_at
FROM accounts
WHERE id = $1`

	getAccountForUpdateSQL = `
SELECT id, name, balance, created_at, updated_at
FROM accounts
WHERE id = $1
FOR UPDATE`

	updateAccountSQL = `
UPDATE accounts
SET balance = $2, updated_at = $3
WHERE id = $1`

	insertAccountSQL = `
INSERT INTO accounts (id, name, balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`

	deleteAllAccountsSQL = `
DELETE FROM accounts
RETURNING id`

	listAccountsSQL = `
SELECT id, name, balance, created_at, updated_at
FROM accounts
ORDER BY id
LIMIT $1 OFFSET $2`
)

type dbConn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AccountRepository implements usecase.AccountStore on PostgreSQL.
type AccountRepository struct {
	db dbConn
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return newAccountRepositoryWithDB(pool)
}

func newAccountRepositoryWithDB(db dbConn) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, getAccountSQL, id))
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
// It must run inside the given transaction so the lock is held until
// commit or rollback.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return scanAccount(pgxTx.QueryRow(ctx, getAccountForUpdateSQL, id))
}

// Save persists an account's balance. The accounts table carries a
// CHECK (balance >= 0) constraint as a second line of defense; a
// violation maps to domain.ErrNegativeBalance.
func (r *AccountRepository) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, updateAccountSQL,
		account.ID,
		decimalToNumeric(account.Balance),
		timeToPgTimestamptz(account.UpdatedAt),
	)
	if err != nil {
		if isCheckViolation(err) {
			return domain.ErrNegativeBalance
		}

		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// CreateBatch inserts the given accounts inside the transaction.
func (r *AccountRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, accounts []*domain.Account) error {
	pgxTx := tx.(*Tx).PgxTx()

	for _, account := range accounts {
		_, err := pgxTx.Exec(ctx, insertAccountSQL,
			account.ID,
			account.Name,
			decimalToNumeric(account.Balance),
			timeToPgTimestamptz(account.CreatedAt),
			timeToPgTimestamptz(account.UpdatedAt),
		)
		if err != nil {
			if isCheckViolation(err) {
				return domain.ErrNegativeBalance
			}

			return fmt.Errorf("insert account %q: %w", account.Name, err)
		}
	}

	return nil
}

// DeleteAll removes every account and returns the removed IDs so
// callers can invalidate caches.
func (r *AccountRepository) DeleteAll(ctx context.Context, tx usecase.Transaction) ([]string, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, deleteAllAccountsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// List lists accounts with pagination, ordered by ID. IDs are ULIDs,
// so this is creation order.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, listAccountsSQL, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]*domain.Account, 0, limit)
	for rows.Next() {
		var (
			account   domain.Account
			balance   pgtype.Numeric
			createdAt pgtype.Timestamptz
			updatedAt pgtype.Timestamptz
		)

		if err := rows.Scan(&account.ID, &account.Name, &balance, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		account.Balance = numericToDecimal(balance)
		account.CreatedAt = createdAt.Time
		account.UpdatedAt = updatedAt.Time

		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account   domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&account.ID, &account.Name, &balance, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Balance = numericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgErrCheckViolation
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
