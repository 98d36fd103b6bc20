// Package cache keeps provider results keyed by the checksum of the uploaded
// audio, so re-running a batch does not upload identical audio twice.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xifan2333/subcue/pkgs/asr"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `CREATE TABLE IF NOT EXISTS transcripts (
	provider   TEXT    NOT NULL,
	checksum   TEXT    NOT NULL,
	size       INTEGER NOT NULL,
	result     TEXT    NOT NULL,
	created_at TEXT    NOT NULL,
	PRIMARY KEY (provider, checksum, size)
)`

// Key identifies one audio buffer on one provider.
type Key struct {
	Provider string
	Checksum string
	Size     int64
}

func (k Key) valid() bool {
	return strings.TrimSpace(k.Provider) != "" && strings.TrimSpace(k.Checksum) != "" && k.Size > 0
}

// Store is the SQLite-backed transcript cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create transcripts table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the cached result for key.
func (s *Store) Lookup(ctx context.Context, key Key) (*asr.StandardResult, bool, error) {
	if s == nil || !key.valid() {
		return nil, false, nil
	}
	var payload string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT result FROM transcripts WHERE provider = ? AND checksum = ? AND size = ?",
			key.Provider, key.Checksum, key.Size,
		).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup transcript: %w", err)
	}

	var result asr.StandardResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, false, fmt.Errorf("decode cached transcript: %w", err)
	}
	return &result, true, nil
}

// Store records result under key, replacing any previous entry.
func (s *Store) Store(ctx context.Context, key Key, result *asr.StandardResult) error {
	if s == nil {
		return nil
	}
	if !key.valid() {
		return fmt.Errorf("store transcript: incomplete key %+v", key)
	}
	if result == nil {
		return errors.New("store transcript: nil result")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO transcripts (provider, checksum, size, result, created_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(provider, checksum, size) DO UPDATE SET result = excluded.result, created_at = excluded.created_at`,
			key.Provider, key.Checksum, key.Size, string(payload), time.Now().UTC().Format(time.RFC3339),
		)
		return err
	})
}

// Remove deletes the entry for key.
func (s *Store) Remove(ctx context.Context, key Key) error {
	if s == nil {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			"DELETE FROM transcripts WHERE provider = ? AND checksum = ? AND size = ?",
			key.Provider, key.Checksum, key.Size,
		)
		return err
	})
}

// Count returns the number of cached transcripts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM transcripts").Scan(&n)
	})
	return n, err
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy backs off while another process holds the write lock.
func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
