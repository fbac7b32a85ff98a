package repository

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
)

type accountEntry struct {
	mu      sync.Mutex
	account domain.Account
}

// AccountStore owns every account record. Balances only change through
// applyDelta, which callers reach via a Tx holding the account's lock.
type AccountStore struct {
	mu       sync.RWMutex
	entries  map[string]*accountEntry
	order    []string
	byOwner  map[string][]string
	counters map[string]int
	now      func() time.Time
	logger   *slog.Logger
}

// NewAccountStore creates a new, empty AccountStore
func NewAccountStore(logger *slog.Logger) *AccountStore {
	return &AccountStore{
		entries:  make(map[string]*accountEntry),
		byOwner:  make(map[string][]string),
		counters: make(map[string]int),
		now:      time.Now,
		logger:   logger,
	}
}

// Create registers a new account with a fresh identifier of the form
// <PREFIX>-NNN, numbered per kind.
func (s *AccountStore) Create(ownerID string, kind domain.AccountKind, initial decimal.Decimal) (domain.Account, error) {
	if !kind.Valid() {
		return domain.Account{}, errors.ErrInvalidAccountKind.WithDetails(string(kind))
	}
	if err := domain.ValidateInitialBalance(initial); err != nil {
		return domain.Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := kind.Prefix()
	s.counters[prefix]++
	id := fmt.Sprintf("%s-%03d", prefix, s.counters[prefix])
	for s.entries[id] != nil {
		s.counters[prefix]++
		id = fmt.Sprintf("%s-%03d", prefix, s.counters[prefix])
	}

	now := s.now()
	account := domain.Account{
		ID:        id,
		Kind:      kind,
		Label:     kind.Label(),
		OwnerID:   ownerID,
		Balance:   initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.entries[id] = &accountEntry{account: account}
	s.order = append(s.order, id)
	s.byOwner[ownerID] = append(s.byOwner[ownerID], id)

	s.logger.Info("Account created", "account_id", id, "owner_id", ownerID, "kind", kind)
	return account, nil
}

func (s *AccountStore) lookup(id string) (*accountEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	return entry, ok
}

// Get returns a copy of the account taken under its lock.
func (s *AccountStore) Get(id string) (domain.Account, error) {
	entry, ok := s.lookup(id)
	if !ok {
		return domain.Account{}, errors.ErrAccountNotFound.WithDetails(id)
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.account, nil
}

// Exists reports whether the identifier names an account.
func (s *AccountStore) Exists(id string) bool {
	_, ok := s.lookup(id)
	return ok
}

// ListByOwner returns the owner's accounts in creation order. An owner with
// no accounts gets an empty slice.
func (s *AccountStore) ListByOwner(ownerID string) []domain.Account {
	s.mu.RLock()
	ids := append([]string(nil), s.byOwner[ownerID]...)
	s.mu.RUnlock()
	return s.collect(ids)
}

// All returns every account in creation order.
func (s *AccountStore) All() []domain.Account {
	s.mu.RLock()
	ids := append([]string(nil), s.order...)
	s.mu.RUnlock()
	return s.collect(ids)
}

func (s *AccountStore) collect(ids []string) []domain.Account {
	out := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		if account, err := s.Get(id); err == nil {
			out = append(out, account)
		}
	}
	return out
}

// lockAll takes the per-account locks in ascending identifier order. Unknown
// identifiers are reported before any lock is held.
func (s *AccountStore) lockAll(ids []string) ([]*accountEntry, error) {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	entries := make([]*accountEntry, 0, len(sorted))
	for _, id := range sorted {
		entry, ok := s.lookup(id)
		if !ok {
			return nil, errors.ErrAccountNotFound.WithDetails(id)
		}
		entries = append(entries, entry)
	}
	for _, entry := range entries {
		entry.mu.Lock()
	}
	return entries, nil
}

func unlockAll(entries []*accountEntry) {
	for i := len(entries) - 1; i >= 0; i-- {
		entries[i].mu.Unlock()
	}
}

// applyDelta adds delta to the balance. The caller must hold the entry lock.
// A result below zero leaves the balance untouched.
func (s *AccountStore) applyDelta(id string, delta decimal.Decimal) (domain.Account, error) {
	entry, ok := s.lookup(id)
	if !ok {
		return domain.Account{}, errors.ErrAccountNotFound.WithDetails(id)
	}
	next := entry.account.Balance.Add(delta)
	if next.IsNegative() {
		return domain.Account{}, errors.ErrInsufficientFunds.WithDetails(id)
	}
	entry.account.Balance = next
	entry.account.UpdatedAt = s.now()
	return entry.account, nil
}
