package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"retail-ledger/internal/auth"
	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
	"retail-ledger/internal/events"
	"retail-ledger/internal/journal"
	"retail-ledger/internal/logging"
	"retail-ledger/internal/repository"
)

const (
	DefaultDescription = "Fund Transfer"
	DefaultRecentLimit = 5
)

// LedgerService runs transfers and answers the derived queries over the log.
type LedgerService struct {
	store       *repository.Store
	users       domain.UserRepository
	journal     journal.Journal
	publisher   events.Publisher
	now         func() time.Time
	recentLimit int
	logger      *slog.Logger

	tracer    trace.Tracer
	transfers metric.Int64Counter
	failures  metric.Int64Counter
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithJournal makes every recorded transfer durable in j
func WithJournal(j journal.Journal) Option {
	return func(s *LedgerService) { s.journal = j }
}

// WithPublisher announces committed transfers through p
func WithPublisher(p events.Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithClock replaces the source of transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// WithRecentLimit sets how many recent transactions statistics report
func WithRecentLimit(n int) Option {
	return func(s *LedgerService) {
		if n > 0 {
			s.recentLimit = n
		}
	}
}

// NewLedgerService creates a LedgerService with a no-op journal and
// publisher unless options provide them.
func NewLedgerService(store *repository.Store, users domain.UserRepository, logger *slog.Logger, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:       store,
		users:       users,
		journal:     journal.Nop(),
		publisher:   events.Nop(),
		now:         time.Now,
		recentLimit: DefaultRecentLimit,
		logger:      logger,
		tracer:      otel.Tracer("retail-ledger/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter("retail-ledger/ledger")
	var err error
	if s.transfers, err = meter.Int64Counter("ledger.transfers.completed",
		metric.WithDescription("Transfers committed to the log")); err != nil {
		logger.Warn("Failed to create transfer counter", "error", err)
	}
	if s.failures, err = meter.Int64Counter("ledger.transfers.failed",
		metric.WithDescription("Transfers rejected or rolled back")); err != nil {
		logger.Warn("Failed to create failure counter", "error", err)
	}
	return s
}

type TransferRequest struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Description          string
	IdempotencyKey       *uuid.UUID
}

// Transfer moves funds between two accounts as one unit: both balances and
// the log entry change together or not at all. The caller must own the
// source account unless it is an administrator. A repeated idempotency key
// returns the transaction created the first time.
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("ledger.source_account_id", req.SourceAccountID),
		attribute.String("ledger.destination_account_id", req.DestinationAccountID),
		attribute.String("ledger.amount", req.Amount.String()),
	)

	logger := logging.FromContext(ctx, s.logger)
	logger.Info("Processing transfer",
		"source_account_id", req.SourceAccountID,
		"destination_account_id", req.DestinationAccountID,
		"amount", req.Amount,
		"idempotency_key", req.IdempotencyKey)

	t, replayed, err := s.transfer(ctx, req)
	if err != nil {
		s.recordFailure(ctx, span, err)
		logger.Warn("Transfer failed", "error", err)
		return nil, err
	}
	if replayed {
		logger.Info("Returning existing transaction for idempotency key",
			"idempotency_key", req.IdempotencyKey,
			"transaction_id", t.ID)
		return &t, nil
	}

	span.SetAttributes(attribute.String("ledger.transaction_id", t.ID))
	if s.transfers != nil {
		s.transfers.Add(ctx, 1)
	}
	if err := s.publisher.PublishTransfer(ctx, t); err != nil {
		logger.Warn("Failed to publish transfer event", "transaction_id", t.ID, "error", err)
	}

	logger.Info("Transfer completed successfully", "transaction_id", t.ID)
	return &t, nil
}

func (s *LedgerService) transfer(ctx context.Context, req TransferRequest) (domain.Transaction, bool, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return domain.Transaction{}, false, err
	}
	if req.SourceAccountID == "" || req.DestinationAccountID == "" {
		return domain.Transaction{}, false, errors.ErrInvalidInput.WithDetails("source and destination accounts are required")
	}

	if existing, ok := s.replay(req); ok {
		if err := s.authorizeReplay(p, existing); err != nil {
			return domain.Transaction{}, false, err
		}
		return existing, true, nil
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = DefaultDescription
	}

	var recorded domain.Transaction
	err = s.store.WithTransaction(ctx, []string{req.SourceAccountID, req.DestinationAccountID}, func(tx *repository.Tx) error {
		source, err := tx.Account(req.SourceAccountID)
		if err != nil {
			return err
		}
		if source.OwnerID != p.UserID && !p.IsAdmin() {
			return errors.ErrAccountNotFound.WithDetails(req.SourceAccountID)
		}
		if source.Balance.LessThan(req.Amount) {
			return errors.ErrInsufficientFunds.WithDetails(req.SourceAccountID)
		}

		if _, err := tx.Debit(req.SourceAccountID, req.Amount); err != nil {
			return err
		}
		if _, err := tx.Credit(req.DestinationAccountID, req.Amount); err != nil {
			return err
		}

		recorded, err = tx.Record(domain.Transaction{
			SourceAccountID:      req.SourceAccountID,
			DestinationAccountID: req.DestinationAccountID,
			Amount:               req.Amount,
			Description:          description,
			Timestamp:            s.now(),
			IdempotencyKey:       req.IdempotencyKey,
		}, func(t domain.Transaction) error {
			return s.journal.Append(ctx, t)
		})
		return err
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrDuplicateTransaction) {
			if existing, ok := s.replay(req); ok {
				if err := s.authorizeReplay(p, existing); err != nil {
					return domain.Transaction{}, false, err
				}
				return existing, true, nil
			}
		}
		return domain.Transaction{}, false, err
	}
	return recorded, false, nil
}

// replay finds an earlier transfer with the same idempotency key. A key
// reused for a different transfer is a conflict, not a replay.
func (s *LedgerService) replay(req TransferRequest) (domain.Transaction, bool) {
	if req.IdempotencyKey == nil {
		return domain.Transaction{}, false
	}
	existing, ok := s.store.Transactions().ByIdempotencyKey(*req.IdempotencyKey)
	if !ok {
		return domain.Transaction{}, false
	}
	same := existing.SourceAccountID == req.SourceAccountID &&
		existing.DestinationAccountID == req.DestinationAccountID &&
		existing.Amount.Equal(req.Amount)
	return existing, same
}

// authorizeReplay applies the source ownership rule to a replayed transfer,
// so a key never reveals a transaction the caller could not have made.
func (s *LedgerService) authorizeReplay(p auth.Principal, existing domain.Transaction) error {
	if p.IsAdmin() {
		return nil
	}
	source, err := s.store.Accounts().Get(existing.SourceAccountID)
	if err != nil || source.OwnerID != p.UserID {
		return errors.ErrAccountNotFound.WithDetails(existing.SourceAccountID)
	}
	return nil
}

func (s *LedgerService) recordFailure(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if s.failures != nil {
		code := string(errors.FromError(err).Code)
		s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("ledger.error_code", code)))
	}
}

// History returns the entries touching an account in log order, classified
// relative to the accounts of the account's owner. Only the owner or an
// administrator may look.
func (s *LedgerService) History(ctx context.Context, accountID string, filter domain.TransactionFilter) ([]domain.HistoryEntry, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var entries []domain.HistoryEntry
	err = s.store.WithSnapshot(func(v *repository.Snapshot) error {
		account, err := v.Account(accountID)
		if err != nil {
			return err
		}
		if account.OwnerID != p.UserID && !p.IsAdmin() {
			return errors.ErrAccountNotFound.WithDetails(accountID)
		}

		owned := make(map[string]bool)
		for _, a := range v.AccountsByOwner(account.OwnerID) {
			owned[a.ID] = true
		}
		owns := func(id string) bool { return owned[id] }

		filter.AccountID = ""
		txs := filter.Apply(v.TransactionsByAccount(accountID))
		entries = make([]domain.HistoryEntry, 0, len(txs))
		for _, t := range txs {
			entries = append(entries, domain.HistoryEntry{Transaction: t, Kind: domain.Classify(t, owns)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// AllTransactions returns the filtered log in append order. Administrators only.
func (s *LedgerService) AllTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	var txs []domain.Transaction
	err := s.store.WithSnapshot(func(v *repository.Snapshot) error {
		txs = filter.Apply(v.Transactions())
		return nil
	})
	return txs, err
}

// Statistics summarizes users, accounts and the log at one point in time.
// A non-positive recentN uses the configured default. Administrators only.
func (s *LedgerService) Statistics(ctx context.Context, recentN int) (*domain.Statistics, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if recentN <= 0 {
		recentN = s.recentLimit
	}

	var stats *domain.Statistics
	err := s.store.WithSnapshot(func(v *repository.Snapshot) error {
		stats = computeStatistics(s.users.ListUsers(), v.Accounts(), v.Transactions(), recentN)
		return nil
	})
	return stats, err
}

func computeStatistics(users []domain.User, accounts []domain.Account, txs []domain.Transaction, recentN int) *domain.Statistics {
	stats := &domain.Statistics{
		TotalUsers:               len(users),
		TotalAccounts:            len(accounts),
		TotalBalance:             decimal.Zero,
		AverageBalance:           decimal.Zero,
		AccountTypeCounts:        make(map[string]int),
		TotalTransactions:        len(txs),
		TotalTransactionAmount:   decimal.Zero,
		AverageTransactionAmount: decimal.Zero,
		RecentTransactions:       []domain.Transaction{},
	}

	for _, u := range users {
		switch u.Role {
		case domain.RoleAdmin:
			stats.AdminCount++
		case domain.RoleCustomer:
			stats.CustomerCount++
		}
	}

	for _, a := range accounts {
		stats.TotalBalance = stats.TotalBalance.Add(a.Balance)
		stats.AccountTypeCounts[a.Label]++
	}
	if len(accounts) > 0 {
		stats.AverageBalance = stats.TotalBalance.Div(decimal.NewFromInt(int64(len(accounts)))).Round(domain.CentPlaces)
	}

	for i, t := range txs {
		stats.TotalTransactionAmount = stats.TotalTransactionAmount.Add(t.Amount)
		if stats.LargestTransaction == nil || t.Amount.GreaterThan(stats.LargestTransaction.Amount) {
			stats.LargestTransaction = &txs[i]
		}
	}
	if len(txs) > 0 {
		stats.AverageTransactionAmount = stats.TotalTransactionAmount.Div(decimal.NewFromInt(int64(len(txs)))).Round(domain.CentPlaces)
	}

	recent := append([]domain.Transaction(nil), txs...)
	domain.SortNewestFirst(recent)
	if len(recent) > recentN {
		recent = recent[:recentN]
	}
	stats.RecentTransactions = append(stats.RecentTransactions, recent...)

	return stats
}
