// Package events announces completed transfers to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"retail-ledger/internal/domain"
)

const transferCompleted = "transfer.completed"

// Publisher is notified after a transfer commits. Delivery is best effort.
type Publisher interface {
	PublishTransfer(ctx context.Context, t domain.Transaction) error
	Close() error
}

// TransferEvent is the payload published for every committed transfer.
type TransferEvent struct {
	Type                 string    `json:"type"`
	TransactionID        string    `json:"transaction_id"`
	Sequence             int64     `json:"sequence"`
	SourceAccountID      string    `json:"source_account_id"`
	DestinationAccountID string    `json:"destination_account_id"`
	Amount               string    `json:"amount"`
	Description          string    `json:"description"`
	Timestamp            time.Time `json:"timestamp"`
}

func NewTransferEvent(t domain.Transaction) TransferEvent {
	return TransferEvent{
		Type:                 transferCompleted,
		TransactionID:        t.ID,
		Sequence:             t.Sequence,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Amount:               t.Amount.StringFixed(domain.CentPlaces),
		Description:          t.Description,
		Timestamp:            t.Timestamp.UTC(),
	}
}

// Subject joins the configured prefix and the event name.
func Subject(prefix string) string {
	if prefix == "" {
		return transferCompleted
	}
	return prefix + "." + transferCompleted
}

type msgPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes transfer events as JSON over NATS
type NATSPublisher struct {
	conn    *nats.Conn
	pub     msgPublisher
	subject string
	logger  *slog.Logger
}

// ConnectNATS creates a publisher on prefix.transfer.completed that keeps
// reconnecting to the server at url
func ConnectNATS(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("retail-ledger"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Connected to NATS", "url", nc.ConnectedUrl(), "subject", Subject(prefix))
	return &NATSPublisher{conn: nc, pub: nc, subject: Subject(prefix), logger: logger}, nil
}

func (p *NATSPublisher) PublishTransfer(ctx context.Context, t domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewTransferEvent(t))
	if err != nil {
		return fmt.Errorf("failed to encode transfer event: %w", err)
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish transfer event %s: %w", t.ID, err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

type nop struct{}

// Nop returns a publisher that drops every event
func Nop() Publisher {
	return nop{}
}

func (nop) PublishTransfer(context.Context, domain.Transaction) error { return nil }
func (nop) Close() error                                                { return nil }
