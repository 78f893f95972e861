package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// SQLDriverName maps STORAGE_DRIVER to the registered database/sql driver.
func SQLDriverName(storageDriver string) (string, error) {
	switch storageDriver {
	case "sqlite", "":
		return "sqlite", nil
	case "mysql":
		return "mysql", nil
	case "postgres", "pgx":
		return "pgx", nil
	default:
		return "", fmt.Errorf("storage driver %q tidak dikenal", storageDriver)
	}
}

// ConnectDB opens the local storage database (idempotent).
func ConnectDB(env Env) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	driver, err := SQLDriverName(env.StorageDriver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, env.StorageDSN)
	if err != nil {
		return nil, fmt.Errorf("gagal open DB: %w", err)
	}

	if driver == "sqlite" {
		// one writer keeps sqlite from returning SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(10 * time.Minute)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("gagal ping DB: %w", err)
	}

	DB = db
	log.Printf("[STORAGE] terhubung driver=%s", driver)
	return DB, nil
}

func EnsureDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB == nil {
		return fmt.Errorf("database belum terhubung")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return DB.PingContext(ctx)
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
