package repository

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/errors"
)

// PersistFunc makes an entry durable before it becomes visible in the log.
type PersistFunc func(domain.Transaction) error

// TransactionLog is the append-only history. Entries are never updated or
// removed, and identifiers are assigned in append order.
type TransactionLog struct {
	mu        sync.RWMutex
	entries   []domain.Transaction
	byAccount map[string][]int
	byKey     map[uuid.UUID]int
	seq       int64
	logger    *slog.Logger
}

// NewTransactionLog creates an empty log; the first entry gets TRX-001.
func NewTransactionLog(logger *slog.Logger) *TransactionLog {
	return &TransactionLog{
		byAccount: make(map[string][]int),
		byKey:     make(map[uuid.UUID]int),
		logger:    logger,
	}
}

// FormatTransactionID renders a log sequence as a transaction identifier.
func FormatTransactionID(seq int64) string {
	return fmt.Sprintf("TRX-%03d", seq)
}

// Append assigns the next identifier and sequence to t, hands it to persist
// and only then records it. The sequence number is consumed even when
// persist fails, since the journal may already hold the entry; identifiers
// stay unique and increasing, with a gap where a transfer was abandoned.
// The log keeps its own copy of t.
func (l *TransactionLog) Append(t domain.Transaction, persist PersistFunc) (domain.Transaction, error) {
	if err := domain.ValidateAmount(t.Amount); err != nil {
		return domain.Transaction{}, err
	}
	t = t.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	if t.IdempotencyKey != nil {
		if _, dup := l.byKey[*t.IdempotencyKey]; dup {
			return domain.Transaction{}, errors.ErrDuplicateTransaction.WithDetails(t.IdempotencyKey.String())
		}
	}

	l.seq++
	t.Sequence = l.seq
	t.ID = FormatTransactionID(t.Sequence)

	if persist != nil {
		if err := persist(t.Clone()); err != nil {
			l.logger.Error("Failed to persist transaction", "transaction_id", t.ID, "error", err)
			return domain.Transaction{}, err
		}
	}

	idx := len(l.entries)
	l.entries = append(l.entries, t)
	l.byAccount[t.SourceAccountID] = append(l.byAccount[t.SourceAccountID], idx)
	if t.DestinationAccountID != t.SourceAccountID {
		l.byAccount[t.DestinationAccountID] = append(l.byAccount[t.DestinationAccountID], idx)
	}
	if t.IdempotencyKey != nil {
		l.byKey[*t.IdempotencyKey] = idx
	}
	return t.Clone(), nil
}

// ByAccount returns the entries touching the account, in log order.
func (l *TransactionLog) ByAccount(accountID string) []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idxs := l.byAccount[accountID]
	out := make([]domain.Transaction, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, l.entries[idx].Clone())
	}
	return out
}

// All returns a copy of the full log in append order.
func (l *TransactionLog) All() []domain.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Transaction, 0, len(l.entries))
	for _, t := range l.entries {
		out = append(out, t.Clone())
	}
	return out
}

// ByIdempotencyKey returns the entry recorded under key, if any.
func (l *TransactionLog) ByIdempotencyKey(key uuid.UUID) (domain.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.byKey[key]
	if !ok {
		return domain.Transaction{}, false
	}
	return l.entries[idx].Clone(), true
}

// Len returns the number of recorded entries.
func (l *TransactionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
