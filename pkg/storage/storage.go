package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const DefaultDBTimeout = 5 * time.Second

type DB struct {
	sql *sql.DB
}

func Open(path string, timeout time.Duration) (*DB, error) {
	if timeout <= 0 {
		timeout = DefaultDBTimeout
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, timeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS kv (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

func (d *DB) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (d *DB) Put(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	return err
}

func (d *DB) Delete(ctx context.Context, key string) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

// Keys returns every key starting with prefix, sorted.
func (d *DB) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key", len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Stats returns the number of entries per key namespace.
func (d *DB) Stats(ctx context.Context) ([]NamespaceStats, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT key, updated_at FROM kv ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byNS := map[string]*NamespaceStats{}
	var order []string
	for rows.Next() {
		var key, updatedStr string
		if err := rows.Scan(&key, &updatedStr); err != nil {
			return nil, err
		}
		ns := Namespace(key)
		s, ok := byNS[ns]
		if !ok {
			s = &NamespaceStats{Namespace: ns}
			byNS[ns] = s
			order = append(order, ns)
		}
		s.Count++
		// Parse SQLite CURRENT_TIMESTAMP format
		// Try "2006-01-02 15:04:05" then RFC3339
		if t, perr := time.Parse("2006-01-02 15:04:05", updatedStr); perr == nil {
			s.bump(t)
		} else if t2, perr2 := time.Parse(time.RFC3339, updatedStr); perr2 == nil {
			s.bump(t2)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats := make([]NamespaceStats, 0, len(order))
	for _, ns := range order {
		stats = append(stats, *byNS[ns])
	}
	return stats, nil
}

// Namespace drops the trailing ":<id>" segment of keys shaped like
// "app:kind:<id>", so every per-property entry lands in the same bucket.
func Namespace(key string) string {
	if strings.Count(key, ":") < 2 {
		return key
	}
	return key[:strings.LastIndex(key, ":")]
}
