package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/service"
)

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) Register(ctx context.Context, req service.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockDirectory) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *mockDirectory) ListUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func (m *mockDirectory) ResolveOwnerName(ctx context.Context, userID string) (string, bool) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Bool(1)
}

func (m *mockDirectory) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, update)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) CreateAccount(ctx context.Context, req service.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	account, _ := args.Get(0).(*domain.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	account, _ := args.Get(0).(*domain.Account)
	return account, args.Error(1)
}

func (m *mockAccounts) GetAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	args := m.Called(ctx, ownerID)
	accounts, _ := args.Get(0).([]domain.Account)
	return accounts, args.Error(1)
}

func (m *mockAccounts) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	accounts, _ := args.Get(0).([]domain.Account)
	return accounts, args.Error(1)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Transfer(ctx context.Context, req service.TransferRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	t, _ := args.Get(0).(*domain.Transaction)
	return t, args.Error(1)
}

func (m *mockLedger) History(ctx context.Context, accountID string, filter domain.TransactionFilter) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, accountID, filter)
	entries, _ := args.Get(0).([]domain.HistoryEntry)
	return entries, args.Error(1)
}

func (m *mockLedger) AllTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, filter)
	txs, _ := args.Get(0).([]domain.Transaction)
	return txs, args.Error(1)
}

func (m *mockLedger) Statistics(ctx context.Context, recentN int) (*domain.Statistics, error) {
	args := m.Called(ctx, recentN)
	stats, _ := args.Get(0).(*domain.Statistics)
	return stats, args.Error(1)
}
