package usecase

import (
	"context"
	"time"

	"github.com/iho/tally/internal/domain"
)

// AccountStore defines data access for accounts.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	Save(ctx context.Context, tx Transaction, account *domain.Account) error
	CreateBatch(ctx context.Context, tx Transaction, accounts []*domain.Account) error
	DeleteAll(ctx context.Context, tx Transaction) ([]string, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Retrier re-runs an operation when it fails with a transient error,
// such as a deadlock or serialization abort.
type Retrier interface {
	Do(ctx context.Context, op func() error) error
}
