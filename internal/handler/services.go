package handler

import (
	"context"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/service"
)

// The handlers depend on these narrow views of the services.

type DirectoryService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ResolveOwnerName(ctx context.Context, userID string) (string, bool)
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.User, error)
}

type AccountService interface {
	CreateAccount(ctx context.Context, req service.CreateAccountRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

type LedgerService interface {
	Transfer(ctx context.Context, req service.TransferRequest) (*domain.Transaction, error)
	History(ctx context.Context, accountID string, filter domain.TransactionFilter) ([]domain.HistoryEntry, error)
	AllTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Statistics(ctx context.Context, recentN int) (*domain.Statistics, error)
}
