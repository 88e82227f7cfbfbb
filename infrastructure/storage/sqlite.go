package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	// Registers the sqlite3 driver with database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/ahrav/go-vigil/internal/ports"
)

const (
	defaultTableName = "cache_entries"

	sqlCreateCacheTable = `
CREATE TABLE IF NOT EXISTS {{TABLE_NAME}} (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  expires_at INTEGER NOT NULL
);`
)

// tableNamePattern constrains table names to plain identifiers, since
// they are spliced into SQL text rather than bound as parameters.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Verify interface compliance at compile time.
var _ ports.CacheStore = (*SQLiteStore)(nil)

// SQLiteStoreOpts holds options for the SQLite cache store.
type SQLiteStoreOpts struct {
	tableName string
}

// SQLiteStoreOpt sets an option for the SQLite cache store.
type SQLiteStoreOpt func(*SQLiteStoreOpts)

// WithTableName overrides the cache table name.
func WithTableName(name string) SQLiteStoreOpt {
	return func(o *SQLiteStoreOpts) { o.tableName = name }
}

// SQLiteStore is a cache store backed by a SQLite database, giving
// cached detections durability across process restarts. Expired rows
// are dropped lazily on read. It is safe for concurrent use; SQLite
// serializes writers internally.
type SQLiteStore struct {
	db        *sql.DB
	tableName string
}

// OpenSQLite opens a SQLite database file for use with NewSQLiteStore.
// The busy timeout keeps concurrent writers waiting instead of failing.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	return db, nil
}

// NewSQLiteStore creates a SQLite-backed cache store and bootstraps its
// schema. The store owns the passed-in db and closes it in Close.
func NewSQLiteStore(db *sql.DB, options ...SQLiteStoreOpt) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}

	opts := SQLiteStoreOpts{tableName: defaultTableName}
	for _, option := range options {
		option(&opts)
	}
	if !tableNamePattern.MatchString(opts.tableName) {
		return nil, fmt.Errorf("invalid table name %q", opts.tableName)
	}

	s := &SQLiteStore{db: db, tableName: opts.tableName}

	if _, err := db.Exec(strings.ReplaceAll(sqlCreateCacheTable, "{{TABLE_NAME}}", opts.tableName)); err != nil {
		return nil, fmt.Errorf("init cache table: %w", err)
	}
	return s, nil
}

// Get retrieves a cached value by key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (any, bool, error) {
	var value []byte
	var expiresAt int64

	query := fmt.Sprintf("SELECT value, expires_at FROM %s WHERE key = ?", s.tableName)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ports.CacheError{Key: key, Operation: "get", Err: err}
	}

	if expiresAt > 0 && time.Now().Unix() >= expiresAt {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores a value with an expiration time. Byte and string values
// are stored as-is; anything else is JSON-encoded.
func (s *SQLiteStore) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return &ports.CacheError{Key: key, Operation: "set", Err: err}
	}

	var expiresAt int64
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration).Unix()
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, value, expires_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, key, data, expiresAt); err != nil {
		return &ports.CacheError{Key: key, Operation: "set", Err: err}
	}
	return nil
}

// Delete removes a value from the cache.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return &ports.CacheError{Key: key, Operation: "delete", Err: err}
	}
	return nil
}

// Clear removes all values from the cache.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM %s", s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return &ports.CacheError{Operation: "clear", Err: err}
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
