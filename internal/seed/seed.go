// Package seed loads the sample users, accounts and transfers used for demos.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"retail-ledger/internal/auth"
	"retail-ledger/internal/domain"
	"retail-ledger/internal/journal"
	"retail-ledger/internal/repository"
	"retail-ledger/internal/service"
)

type sampleUser struct {
	req   service.RegisterRequest
	admin bool
}

type sampleAccount struct {
	owner   string
	kind    domain.AccountKind
	balance string
}

type sampleTransfer struct {
	from, to    string
	amount      string
	description string
	age         time.Duration
}

var (
	users = []sampleUser{
		{req: service.RegisterRequest{Username: "admin", Password: "admin123", FirstName: "Admin", LastName: "User", Email: "admin@example.com"}, admin: true},
		{req: service.RegisterRequest{Username: "user1", Password: "password", FirstName: "John", LastName: "Doe", Email: "john@example.com"}},
		{req: service.RegisterRequest{Username: "user2", Password: "password", FirstName: "Jane", LastName: "Smith", Email: "jane@example.com"}},
	}

	accounts = []sampleAccount{
		{owner: "user1", kind: domain.KindChecking, balance: "2500"},
		{owner: "user1", kind: domain.KindSavings, balance: "10000"},
		{owner: "user2", kind: domain.KindChecking, balance: "3500"},
		{owner: "user2", kind: domain.KindSavings, balance: "15000"},
	}

	day       = 24 * time.Hour
	transfers = []sampleTransfer{
		{from: "CHK-001", to: "SAV-001", amount: "500", description: "Transfer to savings"},
		{from: "CHK-002", to: "SAV-002", amount: "1000", description: "Transfer to savings"},
		{from: "CHK-001", to: "CHK-002", amount: "250", description: "Payment for dinner"},
		{from: "SAV-001", to: "CHK-001", amount: "300", description: "Transfer to checking", age: 5 * day},
		{from: "CHK-002", to: "CHK-001", amount: "125", description: "Split bill payment", age: 15 * day},
	}
)

// Load registers the sample data through the regular services. Transfers
// run under their owners' identities with back-dated timestamps.
func Load(ctx context.Context, store *repository.Store, userRepo domain.UserRepository, j journal.Journal, logger *slog.Logger) error {
	now := time.Now()
	at := now

	directory := service.NewDirectoryService(userRepo, logger)
	accountService := service.NewAccountService(store, userRepo, logger)
	ledger := service.NewLedgerService(store, userRepo, logger,
		service.WithJournal(j),
		service.WithClock(func() time.Time { return at }),
	)

	var admin auth.Principal
	for _, u := range users {
		var (
			created *domain.User
			err     error
		)
		if u.admin {
			created, err = directory.CreateAdmin(ctx, u.req)
		} else {
			created, err = directory.Register(ctx, u.req)
		}
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.req.Username, err)
		}
		if created.IsAdmin() {
			admin = auth.PrincipalFor(*created)
		}
	}

	adminCtx := auth.WithPrincipal(ctx, admin)
	for _, a := range accounts {
		if _, err := accountService.CreateAccount(adminCtx, service.CreateAccountRequest{
			OwnerID:        a.owner,
			Kind:           a.kind,
			InitialBalance: decimal.RequireFromString(a.balance),
		}); err != nil {
			return fmt.Errorf("failed to seed account for %s: %w", a.owner, err)
		}
	}

	for _, t := range transfers {
		source, err := store.Accounts().Get(t.from)
		if err != nil {
			return fmt.Errorf("failed to seed transfer from %s: %w", t.from, err)
		}
		owner, err := userRepo.GetUser(source.OwnerID)
		if err != nil {
			return err
		}

		at = now.Add(-t.age)
		if _, err := ledger.Transfer(auth.WithPrincipal(ctx, auth.PrincipalFor(*owner)), service.TransferRequest{
			SourceAccountID:      t.from,
			DestinationAccountID: t.to,
			Amount:               decimal.RequireFromString(t.amount),
			Description:          t.description,
		}); err != nil {
			return fmt.Errorf("failed to seed transfer %s -> %s: %w", t.from, t.to, err)
		}
	}

	logger.Info("Sample data loaded", "users", len(users), "accounts", len(accounts), "transactions", len(transfers))
	return nil
}
