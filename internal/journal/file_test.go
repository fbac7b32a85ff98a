package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-ledger/internal/domain"
	"retail-ledger/internal/logging"
)

func sampleTransaction(seq int64) domain.Transaction {
	return domain.Transaction{
		ID:                   fmt.Sprintf("TRX-%03d", seq),
		Sequence:             seq,
		SourceAccountID:      "CHK-001",
		DestinationAccountID: "SAV-001",
		Amount:               decimal.RequireFromString("500"),
		Description:          "Transfer to savings",
		Timestamp:            time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestFileJournalAppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "journal.jsonl")
	j, err := OpenFile(path, logging.Discard())
	require.NoError(t, err)

	key := uuid.New()
	second := sampleTransaction(2)
	second.IdempotencyKey = &key

	require.NoError(t, j.Append(context.Background(), sampleTransaction(1)))
	require.NoError(t, j.Append(context.Background(), second))
	require.NoError(t, j.Ping(context.Background()))
	require.NoError(t, j.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)
	assert.Equal(t, "TRX-001", records[0].TransactionID)
	assert.Equal(t, "500.00", records[0].Amount)
	assert.Nil(t, records[0].IdempotencyKey)
	require.NotNil(t, records[1].IdempotencyKey)
	assert.Equal(t, key.String(), *records[1].IdempotencyKey)
}

func TestFileJournalReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")

	j, err := OpenFile(path, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, j.Append(context.Background(), sampleTransaction(1)))
	require.NoError(t, j.Close())

	j, err = OpenFile(path, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, j.Append(context.Background(), sampleTransaction(2)))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func TestFileJournalClosed(t *testing.T) {
	j, err := OpenFile(filepath.Join(t.TempDir(), "journal.jsonl"), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.Error(t, j.Append(context.Background(), sampleTransaction(1)))
	assert.Error(t, j.Ping(context.Background()))
}

func TestNop(t *testing.T) {
	j := Nop()
	assert.NoError(t, j.Append(context.Background(), sampleTransaction(1)))
	assert.NoError(t, j.Ping(context.Background()))
	assert.NoError(t, j.Close())
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
