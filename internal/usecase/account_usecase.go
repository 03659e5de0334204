package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tally/internal/domain"
	"github.com/iho/tally/internal/infrastructure/metrics"
)

const accountCacheKeyPrefix = "account:"

// AccountUseCase handles account reads and seeding.
type AccountUseCase struct {
	txManager    TransactionManager
	accountStore AccountStore
	idGen        IDGenerator
	cache        Cache
	cacheTTL     time.Duration
	metrics      *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. cache may be nil, in
// which case reads always go to the store.
func NewAccountUseCase(
	txManager TransactionManager,
	accountStore AccountStore,
	idGen IDGenerator,
	cache Cache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:    txManager,
		accountStore: accountStore,
		idGen:        idGen,
		cache:        cache,
		cacheTTL:     cacheTTL,
		metrics:      m,
	}
}

// SeedAccountInput represents one account to seed.
type SeedAccountInput struct {
	Name    string
	Balance decimal.Decimal
}

// DefaultSeedAccounts returns the fixture set used when a seed request
// names no accounts.
func DefaultSeedAccounts() []SeedAccountInput {
	return []SeedAccountInput{
		{Name: "alice", Balance: decimal.NewFromInt(1000)},
		{Name: "bob", Balance: decimal.NewFromInt(500)},
	}
}

// SeedAccounts replaces all existing accounts with the given set. It is
// the only path that creates or deletes accounts. An empty input seeds
// the default fixture set.
func (uc *AccountUseCase) SeedAccounts(ctx context.Context, inputs []SeedAccountInput) ([]*domain.Account, error) {
	if len(inputs) == 0 {
		inputs = DefaultSeedAccounts()
	}

	// Validate everything before touching the store.
	for _, input := range inputs {
		if err := domain.ValidateAccountName(input.Name); err != nil {
			return nil, err
		}

		if err := domain.ValidateSeedBalance(input.Balance); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	accounts := make([]*domain.Account, 0, len(inputs))
	for _, input := range inputs {
		accounts = append(accounts, &domain.Account{
			ID:        uc.idGen.Generate(),
			Name:      input.Name,
			Balance:   input.Balance,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	removed, err := uc.accountStore.DeleteAll(txCtx, tx)
	if err != nil {
		return nil, err
	}

	if err := uc.accountStore.CreateBatch(txCtx, tx, accounts); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.InvalidateAccounts(ctx, removed...)

	if uc.metrics != nil {
		uc.metrics.AccountsSeeded.Add(float64(len(accounts)))
	}

	return accounts, nil
}

// GetAccount retrieves an account by ID, reading through the cache when
// one is configured.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, accountCacheKeyPrefix+id); err == nil && data != nil {
			var account domain.Account
			if err := json.Unmarshal(data, &account); err == nil {
				if uc.metrics != nil {
					uc.metrics.CacheHits.Inc()
				}
				return &account, nil
			}
		}

		if uc.metrics != nil {
			uc.metrics.CacheMisses.Inc()
		}
	}

	account, err := uc.accountStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			// Best effort: a failed cache write never fails the read.
			_ = uc.cache.Set(ctx, accountCacheKeyPrefix+account.ID, data, uc.cacheTTL)
		}
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountStore.List(ctx, limit, offset)
}

// InvalidateAccounts drops cached entries for the given account IDs.
// Transfers call this after a successful commit so stale balances are
// not served from the cache.
func (uc *AccountUseCase) InvalidateAccounts(ctx context.Context, ids ...string) {
	if uc.cache == nil || len(ids) == 0 {
		return
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, accountCacheKeyPrefix+id)
	}

	_ = uc.cache.Delete(ctx, keys...)
}
