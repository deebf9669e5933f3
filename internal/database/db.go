package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Options selects the backing store.  MySQL is the production target;
// SQLite serves local development and tests with the same queries.
type Options struct {
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	Path   string // sqlite3 only; ":memory:" is allowed
}

// Open connects to the configured database and verifies the connection.
func Open(opts Options) (*sql.DB, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverMySQL
	}
	dsn, err := dsnFor(driver, opts)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func dsnFor(driver string, opts Options) (string, error) {
	switch driver {
	case DriverMySQL:
		auth := opts.User
		if opts.Pass != "" {
			auth = fmt.Sprintf("%s:%s", opts.User, opts.Pass)
		}
		// parseTime=true -> DATE/DATETIME -> time.Time | loc=UTC keeps times consistent
		// clientFoundRows=true -> RowsAffected counts matched rows, as SQLite does
		return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
			auth, opts.Host, opts.Port, opts.Name), nil
	case DriverSQLite:
		path := opts.Path
		if path == "" {
			path = "sunapee_sound.db"
		}
		if path == ":memory:" {
			return "file::memory:?_foreign_keys=on&_busy_timeout=5000", nil
		}
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path), nil
	}
	return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
}
