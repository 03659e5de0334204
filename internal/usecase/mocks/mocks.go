package mocks

import (
	"context"
	"sync"

	"github.com/iho/tally/internal/domain"
	"github.com/iho/tally/internal/usecase"
)

// MockAccountStore is a mock implementation of AccountStore.
type MockAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	GetByIDFunc          func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	SaveFunc             func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	CreateBatchFunc      func(ctx context.Context, tx usecase.Transaction, accounts []*domain.Account) error
	DeleteAllFunc        func(ctx context.Context, tx usecase.Transaction) ([]string, error)
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountStore() *MockAccountStore {
	return &MockAccountStore{
		accounts: make(map[string]*domain.Account),
	}
}

// Add puts an account into the in-memory store, bypassing any Func hooks.
func (m *MockAccountStore) Add(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *account
	m.accounts[account.ID] = &copied
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		copied := *acc
		return &copied, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountStore) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountStore) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	copied := *account
	m.accounts[account.ID] = &copied
	return nil
}

func (m *MockAccountStore) CreateBatch(ctx context.Context, tx usecase.Transaction, accounts []*domain.Account) error {
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(ctx, tx, accounts)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, acc := range accounts {
		copied := *acc
		m.accounts[acc.ID] = &copied
	}
	return nil
}

func (m *MockAccountStore) DeleteAll(ctx context.Context, tx usecase.Transaction) ([]string, error) {
	if m.DeleteAllFunc != nil {
		return m.DeleteAllFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	m.accounts = make(map[string]*domain.Account)
	return ids, nil
}

func (m *MockAccountStore) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		copied := *acc
		accounts = append(accounts, &copied)
	}
	return accounts, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return "mock-id-" + string(rune('0'+m.counter))
}

// MockRetrier is a mock implementation of Retrier that runs the
// operation exactly once.
type MockRetrier struct {
	DoFunc func(ctx context.Context, op func() error) error
}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (m *MockRetrier) Do(ctx context.Context, op func() error) error {
	if m.DoFunc != nil {
		return m.DoFunc(ctx, op)
	}
	return op()
}
