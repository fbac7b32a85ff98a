package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an entry of the append-only log. It is a value: once
// appended nothing rewrites it.
type Transaction struct {
	ID                   string          `json:"transaction_id"`
	Sequence             int64           `json:"sequence"`
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Timestamp            time.Time       `json:"timestamp"`
	IdempotencyKey       *uuid.UUID      `json:"idempotency_key,omitempty"`
}

// Clone returns a copy that shares no memory with t.
func (t Transaction) Clone() Transaction {
	if t.IdempotencyKey != nil {
		key := *t.IdempotencyKey
		t.IdempotencyKey = &key
	}
	return t
}

// Involves reports whether the account is the source or the destination.
func (t Transaction) Involves(accountID string) bool {
	return t.SourceAccountID == accountID || t.DestinationAccountID == accountID
}

// TransactionFilter narrows a transaction listing. Unset fields match
// everything. The date range is exclusive on both ends, the amount range
// inclusive on both ends.
type TransactionFilter struct {
	AccountID string
	From      *time.Time
	To        *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
}

func (f TransactionFilter) Matches(t Transaction) bool {
	if f.AccountID != "" && !t.Involves(f.AccountID) {
		return false
	}
	if f.From != nil && !t.Timestamp.After(*f.From) {
		return false
	}
	if f.To != nil && !t.Timestamp.Before(*f.To) {
		return false
	}
	if f.MinAmount != nil && t.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && t.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	return true
}

// Apply returns the matching transactions in their original order.
func (f TransactionFilter) Apply(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

func FilterByAccount(txs []Transaction, accountID string) []Transaction {
	return TransactionFilter{AccountID: accountID}.Apply(txs)
}

func FilterByDateRange(txs []Transaction, from, to time.Time) []Transaction {
	return TransactionFilter{From: &from, To: &to}.Apply(txs)
}

func FilterByAmountRange(txs []Transaction, minAmount, maxAmount decimal.Decimal) []Transaction {
	return TransactionFilter{MinAmount: &minAmount, MaxAmount: &maxAmount}.Apply(txs)
}

// SortNewestFirst orders by timestamp descending, later log entries first on
// equal timestamps.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].Timestamp.After(txs[j].Timestamp)
		}
		return txs[i].Sequence > txs[j].Sequence
	})
}

// HistoryKind classifies an entry relative to the viewing user.
type HistoryKind string

const (
	HistoryTransfer HistoryKind = "Transfer"
	HistoryDebit    HistoryKind = "Debit"
	HistoryCredit   HistoryKind = "Credit"
)

// Classify derives the kind from which ends the viewer owns.
func Classify(t Transaction, owns func(accountID string) bool) HistoryKind {
	fromLocal := owns(t.SourceAccountID)
	toLocal := owns(t.DestinationAccountID)
	switch {
	case fromLocal && toLocal:
		return HistoryTransfer
	case fromLocal:
		return HistoryDebit
	default:
		return HistoryCredit
	}
}

type HistoryEntry struct {
	Transaction
	Kind HistoryKind `json:"kind"`
}

// Statistics is a point-in-time summary of the whole ledger.
type Statistics struct {
	TotalUsers               int             `json:"total_users"`
	CustomerCount            int             `json:"customer_count"`
	AdminCount               int             `json:"admin_count"`
	TotalAccounts            int             `json:"total_accounts"`
	TotalBalance             decimal.Decimal `json:"total_balance"`
	AverageBalance           decimal.Decimal `json:"average_balance"`
	AccountTypeCounts        map[string]int  `json:"account_type_counts"`
	TotalTransactions        int             `json:"total_transactions"`
	TotalTransactionAmount   decimal.Decimal `json:"total_transaction_amount"`
	AverageTransactionAmount decimal.Decimal `json:"average_transaction_amount"`
	LargestTransaction       *Transaction    `json:"largest_transaction,omitempty"`
	RecentTransactions       []Transaction   `json:"recent_transactions"`
}
