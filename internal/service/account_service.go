package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
	"retail-ledger/internal/repository"
)

var maxInitialBalance = decimal.NewFromInt(10_000_000_000)

type AccountService struct {
	store  *repository.Store
	users  domain.UserRepository
	logger *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store *repository.Store, users domain.UserRepository, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		users:  users,
		logger: logger,
	}
}

type CreateAccountRequest struct {
	OwnerID        string
	Kind           domain.AccountKind
	InitialBalance decimal.Decimal
}

// CreateAccount opens an account for an existing user. Administrators only.
func (s *AccountService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*domain.Account, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.open(req)
}

func (s *AccountService) open(req CreateAccountRequest) (*domain.Account, error) {
	s.logger.Info("Creating account", "owner_id", req.OwnerID, "kind", req.Kind, "initial_balance", req.InitialBalance)

	if !req.Kind.Valid() {
		return nil, errors.ErrInvalidAccountKind.WithDetails(string(req.Kind))
	}
	if err := domain.ValidateInitialBalance(req.InitialBalance); err != nil {
		return nil, err
	}
	if req.InitialBalance.GreaterThan(maxInitialBalance) {
		return nil, errors.NewAppError(errors.InvalidArgument, "initial balance exceeds maximum limit")
	}
	if _, err := s.users.GetUser(req.OwnerID); err != nil {
		return nil, err
	}

	account, err := s.store.Accounts().Create(req.OwnerID, req.Kind, req.InitialBalance)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccount returns the account to its owner or to an administrator.
// Anyone else gets AccountNotFound so existence is not disclosed.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.store.Accounts().Get(accountID)
	if err != nil {
		return nil, err
	}
	if account.OwnerID != p.UserID && !p.IsAdmin() {
		return nil, errors.ErrAccountNotFound.WithDetails(accountID)
	}
	return &account, nil
}

// GetAccountsByOwner lists an owner's accounts in creation order.
func (s *AccountService) GetAccountsByOwner(ctx context.Context, ownerID string) ([]domain.Account, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if ownerID != p.UserID && !p.IsAdmin() {
		return nil, errors.ErrForbidden
	}

	var accounts []domain.Account
	err = s.store.WithSnapshot(func(v *repository.Snapshot) error {
		accounts = v.AccountsByOwner(ownerID)
		return nil
	})
	return accounts, err
}

// ListAccounts returns every account. Administrators only.
func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	err := s.store.WithSnapshot(func(v *repository.Snapshot) error {
		accounts = v.Accounts()
		return nil
	})
	return accounts, err
}
