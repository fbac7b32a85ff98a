package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
)

// Store groups the account records and the transaction log behind one
// unit-of-work boundary. Mutations hold the ledger lock shared plus the
// locks of the accounts they touch; snapshots hold the ledger lock
// exclusively so they never observe a half-applied transfer.
type Store struct {
	ledger       sync.RWMutex
	accounts     *AccountStore
	transactions *TransactionLog
	logger       *slog.Logger
}

// NewStore creates a new Store with an empty account store and log
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		accounts:     NewAccountStore(logger),
		transactions: NewTransactionLog(logger),
		logger:       logger,
	}
}

// Accounts exposes the account records for single-account reads and creation.
func (s *Store) Accounts() *AccountStore {
	return s.accounts
}

// Transactions exposes the log for reads that need no cross-account view.
func (s *Store) Transactions() *TransactionLog {
	return s.transactions
}

type undoEntry struct {
	accountID string
	delta     decimal.Decimal
}

// Tx is a unit of work over a fixed set of locked accounts. Balance changes
// are undone in reverse order when the enclosing function fails.
type Tx struct {
	store    *Store
	locked   map[string]struct{}
	undo     []undoEntry
	recorded bool
}

// Account returns the current state of a locked account.
func (tx *Tx) Account(id string) (domain.Account, error) {
	if _, ok := tx.locked[id]; !ok {
		return domain.Account{}, errors.NewAppErrorf(errors.InternalError, "account %s is not part of this unit of work", id)
	}
	entry, ok := tx.store.accounts.lookup(id)
	if !ok {
		return domain.Account{}, errors.ErrAccountNotFound.WithDetails(id)
	}
	return entry.account, nil
}

// Debit takes amount from a locked account
func (tx *Tx) Debit(id string, amount decimal.Decimal) (domain.Account, error) {
	return tx.apply(id, amount.Neg())
}

// Credit adds amount to a locked account
func (tx *Tx) Credit(id string, amount decimal.Decimal) (domain.Account, error) {
	return tx.apply(id, amount)
}

func (tx *Tx) apply(id string, delta decimal.Decimal) (domain.Account, error) {
	if tx.recorded {
		return domain.Account{}, errors.NewAppError(errors.InternalError, "balance change after the transaction was recorded")
	}
	if _, ok := tx.locked[id]; !ok {
		return domain.Account{}, errors.NewAppErrorf(errors.InternalError, "account %s is not part of this unit of work", id)
	}
	account, err := tx.store.accounts.applyDelta(id, delta)
	if err != nil {
		return domain.Account{}, err
	}
	tx.undo = append(tx.undo, undoEntry{accountID: id, delta: delta})
	return account, nil
}

// Record appends the transaction to the log. It must be the last step of
// the unit of work since log entries are never removed.
func (tx *Tx) Record(t domain.Transaction, persist PersistFunc) (domain.Transaction, error) {
	recorded, err := tx.store.transactions.Append(t, persist)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.recorded = true
	return recorded, nil
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		u := tx.undo[i]
		if _, err := tx.store.accounts.applyDelta(u.accountID, u.delta.Neg()); err != nil {
			tx.store.logger.Error("Failed to undo balance change", "account_id", u.accountID, "delta", u.delta, "error", err)
		}
	}
	tx.undo = nil
}

// WithTransaction runs fn with the given accounts locked. Any error returned
// by fn, or a panic, restores the balances fn changed.
func (s *Store) WithTransaction(ctx context.Context, accountIDs []string, fn func(*Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.ledger.RLock()
	defer s.ledger.RUnlock()

	entries, err := s.accounts.lockAll(accountIDs)
	if err != nil {
		return err
	}
	defer unlockAll(entries)

	tx := &Tx{store: s, locked: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		tx.locked[entry.account.ID] = struct{}{}
	}

	defer func() {
		if p := recover(); p != nil {
			if !tx.recorded {
				tx.rollback()
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if !tx.recorded {
			tx.rollback()
		}
		return err
	}
	return nil
}

// Snapshot is a consistent read-only view of the whole ledger.
type Snapshot struct {
	store *Store
}

func (v *Snapshot) Account(id string) (domain.Account, error) {
	return v.store.accounts.Get(id)
}

func (v *Snapshot) Accounts() []domain.Account {
	return v.store.accounts.All()
}

func (v *Snapshot) AccountsByOwner(ownerID string) []domain.Account {
	return v.store.accounts.ListByOwner(ownerID)
}

func (v *Snapshot) Transactions() []domain.Transaction {
	return v.store.transactions.All()
}

func (v *Snapshot) TransactionsByAccount(accountID string) []domain.Transaction {
	return v.store.transactions.ByAccount(accountID)
}

// WithSnapshot runs fn while no unit of work is in flight.
func (s *Store) WithSnapshot(fn func(*Snapshot) error) error {
	s.ledger.Lock()
	defer s.ledger.Unlock()
	return fn(&Snapshot{store: s})
}
