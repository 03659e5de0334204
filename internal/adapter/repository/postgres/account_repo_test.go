package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	"github.com/iho/tally/internal/domain"
	"github.com/iho/tally/internal/usecase"
)

var accountColumns = []string{"id", "name", "balance", "created_at", "updated_at"}

func accountRow(id, name, balance string, at time.Time) []any {
	return []any{
		id,
		name,
		decimalToNumeric(decimal.RequireFromString(balance)),
		pgtype.Timestamptz{Time: at, Valid: true},
		pgtype.Timestamptz{Time: at, Valid: true},
	}
}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()

	tx, err := newTxManager(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	return tx
}

func TestAccountRepositoryGetByID(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)
	now := time.Now().UTC().Truncate(time.Second)

	pool.ExpectQuery(`SELECT id, name, balance, created_at, updated_at\s+FROM accounts\s+WHERE id = \$1`).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow("acc-1", "alice", "1000", now)...))

	account, err := repo.GetByID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.ID != "acc-1" || account.Name != "alice" {
		t.Fatalf("unexpected account: %+v", account)
	}
	if !account.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected balance 1000, got %s", account.Balance)
	}
	if !account.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, account.CreatedAt)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)

	pool.ExpectQuery(`FROM accounts\s+WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepositoryGetByIDForUpdate(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)
	now := time.Now().UTC()

	pool.ExpectBegin()
	pool.ExpectQuery(`WHERE id = \$1\s+FOR UPDATE`).
		WithArgs("acc-2").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(accountRow("acc-2", "bob", "500", now)...))

	tx := beginTx(t, pool)

	account, err := repo.GetByIDForUpdate(context.Background(), tx, "acc-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Name != "bob" || !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected account: %+v", account)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositorySave(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)

	pool.ExpectBegin()
	pool.ExpectExec(`UPDATE accounts\s+SET balance = \$2, updated_at = \$3\s+WHERE id = \$1`).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx := beginTx(t, pool)

	account := &domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(850), UpdatedAt: time.Now()}
	if err := repo.Save(context.Background(), tx, account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositorySaveUnknownAccount(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)

	pool.ExpectBegin()
	pool.ExpectExec(`UPDATE accounts`).
		WithArgs("ghost", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	tx := beginTx(t, pool)

	err := repo.Save(context.Background(), tx, &domain.Account{ID: "ghost"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepositorySaveCheckViolation(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)

	pool.ExpectBegin()
	pool.ExpectExec(`UPDATE accounts`).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrCheckViolation})

	tx := beginTx(t, pool)

	account := &domain.Account{ID: "acc-1", Balance: decimal.NewFromInt(-1)}
	err := repo.Save(context.Background(), tx, account)
	if !errors.Is(err, domain.ErrNegativeBalance) {
		t.Fatalf("expected ErrNegativeBalance, got %v", err)
	}
}

func TestAccountRepositoryCreateBatch(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)
	now := time.Now().UTC()

	pool.ExpectBegin()
	pool.ExpectExec(`INSERT INTO accounts`).
		WithArgs("acc-1", "alice", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec(`INSERT INTO accounts`).
		WithArgs("acc-2", "bob", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx := beginTx(t, pool)

	accounts := []*domain.Account{
		{ID: "acc-1", Name: "alice", Balance: decimal.NewFromInt(1000), CreatedAt: now, UpdatedAt: now},
		{ID: "acc-2", Name: "bob", Balance: decimal.NewFromInt(500), CreatedAt: now, UpdatedAt: now},
	}
	if err := repo.CreateBatch(context.Background(), tx, accounts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryDeleteAll(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)

	pool.ExpectBegin()
	pool.ExpectQuery(`DELETE FROM accounts\s+RETURNING id`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("acc-1").AddRow("acc-2"))

	tx := beginTx(t, pool)

	ids, err := repo.DeleteAll(context.Background(), tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "acc-1" || ids[1] != "acc-2" {
		t.Fatalf("unexpected ids: %v", ids)
	}

	assertExpectations(t, pool)
}

func TestAccountRepositoryList(t *testing.T) {
	pool := newMockPool(t)
	repo := newAccountRepositoryWithDB(pool)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(accountColumns).
		AddRow(accountRow("acc-1", "alice", "1000", now)...).
		AddRow(accountRow("acc-2", "bob", "500", now)...)

	pool.ExpectQuery(`FROM accounts\s+ORDER BY id\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(int32(20), int32(0)).
		WillReturnRows(rows)

	accounts, err := repo.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[1].Name != "bob" || !accounts[1].Balance.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("unexpected account: %+v", accounts[1])
	}

	assertExpectations(t, pool)
}

func TestNumericDecimalRoundTrip(t *testing.T) {
	values := []string{"0", "1000", "123.45", "0.01", "99999999.99"}

	for _, v := range values {
		d := decimal.RequireFromString(v)
		got := numericToDecimal(decimalToNumeric(d))
		if !got.Equal(d) {
			t.Fatalf("round trip of %s produced %s", v, got)
		}
	}
}

func TestIsCheckViolation(t *testing.T) {
	if !isCheckViolation(&pgconn.PgError{Code: pgErrCheckViolation}) {
		t.Fatal("expected check violation to be detected")
	}
	if isCheckViolation(errors.New("other")) {
		t.Fatal("expected generic error to not be a check violation")
	}
}
