package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"

	_ "modernc.org/sqlite"
)

// queueKey is the single fixed key holding the whole pending-queue
// snapshot.
const queueKey = "upload_queue"

// Store persists the scheduler's pending-queue snapshot in a sqlite
// key-value table. Each Save replaces the snapshot in one transactional
// upsert, so a crash leaves either the old snapshot or the new one,
// never a torn write.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the queue database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "queue.db"))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	// WAL and a busy timeout for better concurrency; not critical if the
	// pragmas fail.
	_, _ = db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
	`)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &Store{db: db}, nil
}

var _ port.QueueStore = (*Store)(nil)

// Load returns the persisted snapshot, or an empty slice when no
// snapshot exists.
func (s *Store) Load(ctx context.Context) ([]domain.PersistedTask, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, queueKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.PersistedTask{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load queue snapshot: %w", err)
	}

	var tasks []domain.PersistedTask
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decode queue snapshot: %w", err)
	}
	return tasks, nil
}

// Save replaces the snapshot with the given ordered task list.
func (s *Store) Save(ctx context.Context, tasks []domain.PersistedTask) error {
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode queue snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, queueKey, string(raw))
	if err != nil {
		return fmt.Errorf("save queue snapshot: %w", err)
	}
	return nil
}

// Clear removes the snapshot.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, queueKey)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
