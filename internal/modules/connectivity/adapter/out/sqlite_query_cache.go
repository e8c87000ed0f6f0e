package out

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"connviewer/internal/modules/connectivity/domain"
	connout "connviewer/internal/modules/connectivity/port/out"

	_ "modernc.org/sqlite"
)

type SQLiteQueryCache struct {
	db *sql.DB
}

func NewSQLiteQueryCache(dbPath string) (*SQLiteQueryCache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	cache := &SQLiteQueryCache{db: db}
	if err := cache.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

var _ connout.QueryCache = (*SQLiteQueryCache)(nil)

func (s *SQLiteQueryCache) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS query_cache (
  key TEXT PRIMARY KEY,
  rows BLOB NOT NULL,
  created_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create query_cache table: %w", err)
	}
	return nil
}

func (s *SQLiteQueryCache) Get(ctx context.Context, key string) ([]domain.Record, bool, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT rows FROM query_cache WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read query cache: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var rows []domain.Record
	if err := dec.Decode(&rows); err != nil {
		return nil, false, fmt.Errorf("decode cached rows: %w", err)
	}
	return rows, true, nil
}

func (s *SQLiteQueryCache) Put(ctx context.Context, key string, rows []domain.Record) error {
	blob, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	const stmt = `
INSERT INTO query_cache (key, rows, created_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  rows=excluded.rows,
  created_at=excluded.created_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, key, blob, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write query cache: %w", err)
	}
	return nil
}

func (s *SQLiteQueryCache) Close() error {
	return s.db.Close()
}
