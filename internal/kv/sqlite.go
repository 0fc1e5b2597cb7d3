package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moviehub/pkg/database"
)

const DefaultPollInterval = 500 * time.Millisecond

// SQLiteStore keeps values in the kv table of a sqlite file. Several
// processes may open the same file; Watch reports what the others write.
type SQLiteStore struct {
	db     *sql.DB
	owned  bool
	logger *slog.Logger

	// PollInterval controls how often Watch checks for foreign commits.
	PollInterval time.Duration

	mu       sync.Mutex
	known    map[string]string // table contents as last seen or written by us
	version  int64
	subs     subscribers
	stopPoll context.CancelFunc
}

// OpenSQLite opens (creating if needed) the store file at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := database.Open(database.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := NewSQLiteStore(db, logger)
	s.owned = true
	return s, nil
}

// NewSQLiteStore wraps a migrated database. The pool must hold a single
// connection for data_version to be meaningful.
func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, logger: logger, PollInterval: DefaultPollInterval}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	if s.known != nil {
		s.known[key] = value
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	if s.known != nil {
		delete(s.known, key)
	}
	return nil
}

// Watch starts the shared poller on first use. The poller stops when the
// last watcher goes away.
func (s *SQLiteStore) Watch(ctx context.Context) <-chan Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ch := s.subs.add()
	if s.stopPoll == nil {
		if err := s.resync(ctx); err != nil {
			s.logger.Warn("kv watch: initial snapshot failed", "error", err)
		}
		pollCtx, cancel := context.WithCancel(context.Background())
		s.stopPoll = cancel
		go s.poll(pollCtx)
	}

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs.remove(id)
		if s.subs.count() == 0 && s.stopPoll != nil {
			s.stopPoll()
			s.stopPoll = nil
			s.known = nil
		}
	}()
	return ch
}

func (s *SQLiteStore) poll(ctx context.Context) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.check(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("kv watch: poll failed", "error", err)
			}
		}
	}
}

// check publishes foreign changes when data_version moved.
func (s *SQLiteStore) check(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return nil
	}

	v, err := s.dataVersion(ctx)
	if err != nil {
		return err
	}
	if v == s.version && s.known != nil {
		return nil
	}

	before := s.known
	if err := s.resync(ctx); err != nil {
		return err
	}
	for _, c := range diff(before, s.known) {
		s.subs.publish(c)
	}
	return nil
}

// resync requires s.mu.
func (s *SQLiteStore) resync(ctx context.Context) error {
	v, err := s.dataVersion(ctx)
	if err != nil {
		return err
	}
	all, err := s.list(ctx)
	if err != nil {
		return err
	}
	s.version = v
	s.known = all
	return nil
}

func (s *SQLiteStore) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read data_version: %w", err)
	}
	return v, nil
}

func (s *SQLiteStore) list(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv`)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}
	return result, nil
}

// Close stops watching and closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.stopPoll != nil {
		s.stopPoll()
		s.stopPoll = nil
	}
	s.mu.Unlock()

	if s.owned {
		return s.db.Close()
	}
	return nil
}
