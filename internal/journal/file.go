package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"retail-ledger/internal/domain"
)

// FileJournal writes one JSON record per line and syncs after each append.
type FileJournal struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	logger *slog.Logger
}

// OpenFile opens the journal at path for appending, creating it and its
// directory when missing
func OpenFile(path string, logger *slog.Logger) (*FileJournal, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	logger.Info("Journal file opened", "path", path)
	return &FileJournal{file: f, path: path, logger: logger}, nil
}

// Append writes one JSON line and syncs it to disk
func (j *FileJournal) Append(ctx context.Context, t domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(NewRecord(t))
	if err != nil {
		return fmt.Errorf("failed to encode journal record: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("failed to write journal record %s: %w", t.ID, err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync journal: %w", err)
	}
	return nil
}

func (j *FileJournal) Ping(context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return fmt.Errorf("journal %s is closed", j.path)
	}
	_, err := j.file.Stat()
	return err
}

// Close closes the file; closing twice is a no-op
func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}
