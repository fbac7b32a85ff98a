package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/logging"
)

type mockConn struct {
	mock.Mock
}

func (m *mockConn) Publish(subject string, data []byte) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func transfer() domain.Transaction {
	return domain.Transaction{
		ID:                   "TRX-007",
		Sequence:             7,
		SourceAccountID:      "CHK-001",
		DestinationAccountID: "CHK-002",
		Amount:               decimal.RequireFromString("250"),
		Description:          "Payment for dinner",
		Timestamp:            time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC),
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "ledger.transfer.completed", Subject("ledger"))
	assert.Equal(t, "transfer.completed", Subject(""))
}

func TestNATSPublisherPublishesEvent(t *testing.T) {
	conn := new(mockConn)
	p := &NATSPublisher{pub: conn, subject: Subject("ledger"), logger: logging.Discard()}

	conn.On("Publish", "ledger.transfer.completed", mock.MatchedBy(func(data []byte) bool {
		var event TransferEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return false
		}
		return event.TransactionID == "TRX-007" && event.Amount == "250.00" && event.Type == "transfer.completed"
	})).Return(nil)

	require.NoError(t, p.PublishTransfer(context.Background(), transfer()))
	conn.AssertExpectations(t)
}

func TestNATSPublisherWrapsError(t *testing.T) {
	conn := new(mockConn)
	p := &NATSPublisher{pub: conn, subject: Subject("ledger"), logger: logging.Discard()}
	boom := errors.New("connection closed")
	conn.On("Publish", mock.Anything, mock.Anything).Return(boom)

	err := p.PublishTransfer(context.Background(), transfer())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, p.Close())
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop().PublishTransfer(context.Background(), transfer()))
	assert.NoError(t, Nop().Close())
}
