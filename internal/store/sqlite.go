package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore keeps every namespace in a single embedded SQLite file.
// WAL mode lets the app, the widget and the sync daemon read the file while
// one of them writes.
type SQLiteStore struct {
	conn *sql.DB
	path string
}

// OpenSQLite creates or opens the database at path and ensures the schema.
//
// The caller MUST call Close() when done to ensure the WAL is checkpointed.
//
// Example:
//
//	s, err := store.OpenSQLite("/home/me/.whatsfordinner/shared.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
func OpenSQLite(path string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// A handful of readers is plenty for a single-user device.
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLiteStore{
		conn: conn,
		path: strings.TrimPrefix(path, "file:"),
	}

	// Enable WAL mode for concurrent reads
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// busyTimeout is how long a connection waits for another process's write
// lock before failing.
const busyTimeout = 5000 * time.Millisecond

// sqliteDSN builds the connection string. Per-connection pragmas go in the
// DSN so every pooled connection gets them, not only the first.
func sqliteDSN(path string) string {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, busyTimeout.Milliseconds())
}

// initSchema is idempotent - safe to call on every open.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// Set implements Store.Set.
func (s *SQLiteStore) Set(ctx context.Context, namespace, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	query := `
	INSERT INTO kv (namespace, key, value, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(namespace, key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at
	`
	_, err := s.conn.ExecContext(ctx, query,
		namespace,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete implements Store.Delete. Returns nil if the key doesn't exist.
func (s *SQLiteStore) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ? AND key = ?`, namespace, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// KeyInfo describes one stored value.
type KeyInfo struct {
	Namespace string
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Keys lists every stored key, ordered by namespace and key.
func (s *SQLiteStore) Keys(ctx context.Context) ([]KeyInfo, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT namespace, key, length(value), updated_at FROM kv ORDER BY namespace, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var out []KeyInfo
	for rows.Next() {
		var (
			info    KeyInfo
			updated string
		)
		if err := rows.Scan(&info.Namespace, &info.Key, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			info.UpdatedAt = t
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate keys: %w", err)
	}
	return out, nil
}

// WatchDirs implements Watchable.
func (s *SQLiteStore) WatchDirs() []string {
	return []string{filepath.Dir(s.path)}
}

// ChangeFor implements Watchable. SQLite writes touch the main file or its
// WAL, so changes are reported without a key.
func (s *SQLiteStore) ChangeFor(path string) (Change, bool) {
	base := filepath.Base(s.path)
	name := filepath.Base(path)
	if filepath.Dir(path) != filepath.Dir(s.path) {
		return Change{}, false
	}
	if name == base || name == base+"-wal" {
		return Change{}, true
	}
	return Change{}, false
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (s *SQLiteStore) Close() error {
	if s.conn == nil {
		return nil
	}

	// Checkpoint WAL before closing
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}
