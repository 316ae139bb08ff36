package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var (
	ErrDSNRequired    = errors.New("storage: dsn is required")
	ErrDialectUnknown = errors.New("storage: unsupported dialect")
)

// Options selects the database to open.
type Options struct {
	Dialect      string
	DSN          string
	MaxOpenConns int
}

// sqlitePragmas are applied to every sqlite connection opened by Open.
var sqlitePragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// Open connects to the configured database and returns a bun handle. The
// connection is verified before returning.
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		return nil, ErrDSNRequired
	}

	var db *bun.DB
	switch dialect := strings.ToLower(strings.TrimSpace(opts.Dialect)); dialect {
	case "", DialectSQLite:
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		// sqlite serialises writers; one connection keeps in-memory databases alive.
		sqlDB.SetMaxOpenConns(1)
		for _, pragma := range sqlitePragmas {
			if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
				_ = sqlDB.Close()
				return nil, fmt.Errorf("storage: pragma %q: %w", pragma, err)
			}
		}
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	case DialectPostgres:
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		if opts.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		}
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrDialectUnknown, opts.Dialect)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates a table for every model that does not have one yet.
// Models are created in order, in a single transaction.
func EnsureSchema(ctx context.Context, db *bun.DB, models ...any) error {
	if db == nil {
		return errors.New("storage: database not configured")
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range models {
			if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("storage: create table for %T: %w", model, err)
			}
		}
		return nil
	})
}
