// Package database implements the user and session stores on database/sql.
// SQLite (modernc.org/sqlite) is the default; PostgreSQL is served by lib/pq.
package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the driver and data source.
type Config struct {
	Driver string
	DSN    string
}

// DB is a connection pool that knows its SQL dialect.
type DB struct {
	*sql.DB
	driver string
}

// Open connects, pings and creates the tables if they do not exist yet.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	dsn := cfg.DSN
	switch cfg.Driver {
	case DriverSQLite:
		var err error
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
		if dsn == "" {
			return nil, errors.New("[database Open] postgres DSN is required")
		}
	default:
		return nil, errors.Errorf("[database Open] unsupported driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "[database Open] failed to open database")
	}
	if cfg.Driver == DriverSQLite {
		// One writer at a time avoids SQLITE_BUSY under concurrent inserts
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "[database Open] failed to ping database")
	}

	db := &DB{DB: sqlDB, driver: cfg.Driver}
	if err := db.createSchema(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Driver returns the driver name the pool was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
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

// sqliteDSN adds the foreign key and WAL pragmas and makes sure the parent directory exists.
func sqliteDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", errors.New("[database Open] sqlite DSN is required")
	}

	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	memory := path == ":memory:" || strings.Contains(dsn, "mode=memory")
	if !memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return "", errors.Wrap(err, "[database Open] failed to create database directory")
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !memory {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	return dsn, nil
}
