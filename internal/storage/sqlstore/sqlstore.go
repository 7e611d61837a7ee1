// Package sqlstore keeps rate-limit records in a SQL table. SQLite is served
// by mattn/go-sqlite3 and PostgreSQL by the pgx stdlib driver; both share the
// same schema and queries apart from placeholder syntax.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"webhook-ratelimiter/internal/common/errors"
	"webhook-ratelimiter/internal/models"
	"webhook-ratelimiter/internal/storage"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

const (
	createTableSQL = `
CREATE TABLE IF NOT EXISTS rate_limit_records (
    record_key %s PRIMARY KEY,
    value TEXT NOT NULL,
    expires_at BIGINT NOT NULL DEFAULT 0
)`
	createIndexSQL = `CREATE INDEX IF NOT EXISTS idx_rate_limit_records_expires_at ON rate_limit_records(expires_at)`
)

// Store is a storage.Backend over database/sql.
type Store struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

var _ storage.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New wraps an open database and creates the table if needed.
func New(db *sql.DB, dialect string, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.ConfigError("database connection is required")
	}
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported dialect: %s (supported: sqlite, postgres)", dialect))
	}

	s := &Store{db: db, dialect: dialect, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		return nil, errors.StoreError("migrate", err)
	}
	return s, nil
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.ConfigError("sqlite database path is required")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.ConnectionError("failed to open SQLite database", err)
	}
	// one writer at a time; SQLite serializes writes anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.ConnectionError("failed to ping SQLite database", err)
	}

	s, err := New(db, DialectSQLite, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenPostgres connects to PostgreSQL through pgx.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("invalid postgres connection string: %v", err))
	}

	db := stdlib.OpenDB(*connConfig)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.ConnectionError("failed to connect to PostgreSQL database", err)
	}

	s, err := New(db, DialectPostgres, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	keyType := "TEXT"
	if s.dialect == DialectPostgres {
		keyType = "VARCHAR(512)"
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createTableSQL, keyType)); err != nil {
		return fmt.Errorf("failed to create rate_limit_records table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createIndexSQL); err != nil {
		return fmt.Errorf("failed to create rate_limit_records index: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	query := s.rebind(`SELECT value FROM rate_limit_records WHERE record_key = ? AND (expires_at = 0 OR expires_at > ?)`)

	var value string
	err := s.db.QueryRowContext(ctx, query, key, s.nowMillis()).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.DecodeRecord(key, []byte(value))
}

func (s *Store) Put(ctx context.Context, key string, rec *models.RateLimitRecord, ttl time.Duration) error {
	data, err := storage.EncodeRecord(rec)
	if err != nil {
		return err
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}

	query := s.rebind(`
		INSERT INTO rate_limit_records (record_key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (record_key)
		DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`)
	_, err = s.db.ExecContext(ctx, query, key, string(data), expiresAt)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM rate_limit_records WHERE record_key = ?`), key)
	return err
}

// List pages through live keys in key order. The cursor is the last key of
// the previous page. Starting a new listing (empty cursor) first purges
// expired rows.
func (s *Store) List(ctx context.Context, prefix string, limit int, cursor string) ([]string, string, error) {
	if limit <= 0 {
		return []string{}, "", nil
	}
	now := s.nowMillis()

	if cursor == "" {
		purge := s.rebind(`DELETE FROM rate_limit_records WHERE expires_at > 0 AND expires_at <= ?`)
		if _, err := s.db.ExecContext(ctx, purge, now); err != nil {
			return nil, "", err
		}
	}

	query := s.rebind(`
		SELECT record_key FROM rate_limit_records
		WHERE substr(record_key, 1, ?) = ? AND record_key > ? AND (expires_at = 0 OR expires_at > ?)
		ORDER BY record_key
		LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, utf8.RuneCountInString(prefix), prefix, cursor, now, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	keys := make([]string, 0, limit)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, "", err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	if len(keys) <= limit {
		return keys, "", nil
	}
	keys = keys[:limit]
	return keys, keys[len(keys)-1], nil
}

func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() string {
	return s.dialect
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
