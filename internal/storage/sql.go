package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect accepts STORAGE_DRIVER values.
func ParseDialect(raw string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "sqlite":
		return DialectSQLite, nil
	case "mysql":
		return DialectMySQL, nil
	case "postgres", "pgx":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unknown storage dialect %q", raw)
}

// SQLStore keeps pairs in a single kv_store table.
type SQLStore struct {
	DB      *sql.DB
	Dialect Dialect
	Now     func() time.Time
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{DB: db, Dialect: dialect, Now: time.Now}
}

// CreateSchema creates the kv_store table. Safe to call multiple times.
func (s *SQLStore) CreateSchema(ctx context.Context) error {
	keyType := "TEXT"
	if s.Dialect == DialectMySQL {
		keyType = "VARCHAR(191)"
	}
	stmt := `CREATE TABLE IF NOT EXISTS kv_store (
    k ` + keyType + ` PRIMARY KEY,
    v TEXT NOT NULL,
    updated_at BIGINT NOT NULL
)`
	if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create kv_store: %w", err)
	}
	return nil
}

func (s *SQLStore) ph(n int) string {
	if s.Dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (s *SQLStore) upsertQuery() string {
	base := "INSERT INTO kv_store (k, v, updated_at) VALUES (" + s.ph(1) + ", " + s.ph(2) + ", " + s.ph(3) + ")"
	if s.Dialect == DialectMySQL {
		return base + " ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)"
	}
	return base + " ON CONFLICT (k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at"
}

func (s *SQLStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.DB.QueryRowContext(ctx, "SELECT v FROM kv_store WHERE k = "+s.ph(1), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	ts := s.now().UnixMilli()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		query := s.upsertQuery()
		for k, v := range values {
			if _, err := tx.ExecContext(ctx, query, k, v, ts); err != nil {
				return fmt.Errorf("kv set %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		query := "DELETE FROM kv_store WHERE k = " + s.ph(1)
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, query, k); err != nil {
				return fmt.Errorf("kv delete %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT k FROM kv_store WHERE k LIKE "+s.ph(1)+" ORDER BY k", prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("kv keys: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
