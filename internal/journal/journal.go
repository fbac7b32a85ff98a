// Package journal keeps a durable, append-only audit trail of recorded
// transactions. The ledger never reads its state back from a journal.
package journal

import (
	"context"

	"retail-ledger/internal/domain"
)

// Journal receives every transaction before it becomes visible in the log.
// Append must not return until the entry is durable.
type Journal interface {
	Append(ctx context.Context, t domain.Transaction) error
	Ping(ctx context.Context) error
	Close() error
}

// Record is the persisted form of a transaction.
type Record struct {
	TransactionID        string  `json:"transaction_id"`
	Sequence             int64   `json:"sequence"`
	SourceAccountID      string  `json:"source_account_id"`
	DestinationAccountID string  `json:"destination_account_id"`
	Amount               string  `json:"amount"`
	Description          string  `json:"description"`
	Timestamp            string  `json:"timestamp"`
	IdempotencyKey       *string `json:"idempotency_key,omitempty"`
}

// NewRecord converts a transaction into its journal representation
func NewRecord(t domain.Transaction) Record {
	rec := Record{
		TransactionID:        t.ID,
		Sequence:             t.Sequence,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Amount:               t.Amount.StringFixed(domain.CentPlaces),
		Description:          t.Description,
		Timestamp:            t.Timestamp.UTC().Format(timeLayout),
	}
	if t.IdempotencyKey != nil {
		key := t.IdempotencyKey.String()
		rec.IdempotencyKey = &key
	}
	return rec
}

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type nop struct{}

// Nop discards every entry.
func Nop() Journal {
	return nop{}
}

func (nop) Append(context.Context, domain.Transaction) error { return nil }
func (nop) Ping(context.Context) error                        { return nil }
func (nop) Close() error                                      { return nil }
