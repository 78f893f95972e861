package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "modernc.org/sqlite"
)

func fixedNow() time.Time { return time.UnixMilli(1700000000000) }

func TestSQLStoreMySQLSetManyUsesSingleTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	store := &SQLStore{DB: db, Dialect: DialectMySQL, Now: fixedNow}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv_store .* ON DUPLICATE KEY UPDATE").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO kv_store .* ON DUPLICATE KEY UPDATE").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(1700000000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.SetMany(context.Background(), map[string]string{"accessToken": "a", "refreshToken": "r"})
	if err != nil {
		t.Fatalf("SetMany error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreSetManyRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	store := &SQLStore{DB: db, Dialect: DialectMySQL, Now: fixedNow}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs("role", "admin", int64(1700000000000)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := store.SetMany(context.Background(), map[string]string{"role": "admin"}); err == nil {
		t.Fatalf("expected error from failed upsert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStorePostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	store := &SQLStore{DB: db, Dialect: DialectPostgres, Now: fixedNow}

	mock.ExpectQuery(`SELECT v FROM kv_store WHERE k = \$1`).
		WithArgs("userId").
		WillReturnRows(sqlmock.NewRows([]string{"v"}).AddRow("42"))
	mock.ExpectQuery(`SELECT v FROM kv_store WHERE k = \$1`).
		WithArgs("email").
		WillReturnError(sql.ErrNoRows)

	v, ok, err := store.Get(context.Background(), "userId")
	if err != nil || !ok || v != "42" {
		t.Fatalf("Get userId = %q %v %v", v, ok, err)
	}
	_, ok, err = store.Get(context.Background(), "email")
	if err != nil || ok {
		t.Fatalf("missing key should be ok=false without error, got %v %v", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStoreSQLiteRoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	store := NewSQLStore(db, DialectSQLite)
	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	if err := store.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema must be idempotent: %v", err)
	}

	if err := store.SetMany(ctx, map[string]string{"a:1": "x", "a:2": "y", "b": "z"}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	if err := store.SetMany(ctx, map[string]string{"a:1": "x2"}); err != nil {
		t.Fatalf("SetMany overwrite: %v", err)
	}
	v, ok, err := store.Get(ctx, "a:1")
	if err != nil || !ok || v != "x2" {
		t.Fatalf("Get a:1 = %q %v %v", v, ok, err)
	}

	keys, err := store.Keys(ctx, "a:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "a:1" || keys[1] != "a:2" {
		t.Fatalf("Keys = %#v", keys)
	}

	if err := store.Delete(ctx, "a:1", "a:2", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a:2"); ok {
		t.Fatalf("a:2 should be gone")
	}
	if _, ok, _ := store.Get(ctx, "b"); !ok {
		t.Fatalf("b should survive")
	}
}

func TestParseDialect(t *testing.T) {
	if d, err := ParseDialect("PGX"); err != nil || d != DialectPostgres {
		t.Fatalf("ParseDialect(PGX) = %q %v", d, err)
	}
	if _, err := ParseDialect("mongo"); err == nil {
		t.Fatalf("expected error")
	}
}
