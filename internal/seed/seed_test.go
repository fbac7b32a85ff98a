package seed

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/journal"
	"retail-ledger/internal/logging"
	"retail-ledger/internal/repository"
)

func TestLoad(t *testing.T) {
	store := repository.NewStore(logging.Discard())
	users := repository.NewUserStore(logging.Discard())

	require.NoError(t, Load(context.Background(), store, users, journal.Nop(), logging.Discard()))

	assert.Len(t, users.ListUsers(), 3)

	expected := map[string]string{
		"CHK-001": "2175",
		"SAV-001": "10200",
		"CHK-002": "2625",
		"SAV-002": "16000",
	}
	for id, balance := range expected {
		account, err := store.Accounts().Get(id)
		require.NoError(t, err, id)
		assert.True(t, decimal.RequireFromString(balance).Equal(account.Balance), "%s: %s", id, account.Balance)
	}

	txs := store.Transactions().All()
	require.Len(t, txs, 5)
	assert.Equal(t, "TRX-001", txs[0].ID)
	assert.Equal(t, "Split bill payment", txs[4].Description)
	assert.True(t, txs[4].Timestamp.Before(txs[3].Timestamp))
	assert.True(t, time.Since(txs[4].Timestamp) > 14*24*time.Hour)

	domain.SortNewestFirst(txs)
	assert.Equal(t, "TRX-005", txs[4].ID)
}

func TestLoadTwiceFails(t *testing.T) {
	store := repository.NewStore(logging.Discard())
	users := repository.NewUserStore(logging.Discard())

	require.NoError(t, Load(context.Background(), store, users, journal.Nop(), logging.Discard()))
	assert.Error(t, Load(context.Background(), store, users, journal.Nop(), logging.Discard()))
}
