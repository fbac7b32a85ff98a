package journal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"retail-ledger/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresJournal inserts each transaction into ledger_transactions. The
// table refuses updates and deletes.
type PostgresJournal struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenPostgres connects to PostgreSQL and applies the embedded migrations
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresJournal, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	j := &PostgresJournal{db: db, logger: logger}
	if err := j.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Postgres journal ready")
	return j, nil
}

func (j *PostgresJournal) migrate(ctx context.Context) error {
	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Slice(files, func(a, b int) bool {
		return files[a].Name() < files[b].Name()
	})

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		body, err := migrationsFS.ReadFile("migrations/" + file.Name())
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}
		if _, err := j.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file.Name(), err)
		}
		j.logger.Debug("Executed migration", "file", file.Name())
	}
	return nil
}

// Append inserts the transaction into ledger_transactions
func (j *PostgresJournal) Append(ctx context.Context, t domain.Transaction) error {
	query := `
		INSERT INTO ledger_transactions
		(transaction_id, sequence, source_account_id, destination_account_id, amount, description, occurred_at, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var idempotencyKey interface{}
	if t.IdempotencyKey != nil {
		idempotencyKey = t.IdempotencyKey.String()
	}

	_, err := j.db.ExecContext(ctx, query,
		t.ID,
		t.Sequence,
		t.SourceAccountID,
		t.DestinationAccountID,
		t.Amount.StringFixed(domain.CentPlaces),
		t.Description,
		t.Timestamp.UTC(),
		idempotencyKey,
	)
	if err != nil {
		j.logger.Error("Failed to journal transaction", "transaction_id", t.ID, "error", err)
		return fmt.Errorf("failed to journal transaction %s: %w", t.ID, err)
	}
	return nil
}

// Count returns the number of journaled transactions.
func (j *PostgresJournal) Count(ctx context.Context) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_transactions`).Scan(&n)
	return n, err
}

func (j *PostgresJournal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close closes the database connection pool
func (j *PostgresJournal) Close() error {
	return j.db.Close()
}
