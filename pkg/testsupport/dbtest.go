package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var memoryDBSeq atomic.Uint64

// NewSQLiteMemoryDB opens a private in-memory sqlite database. Each call gets
// its own database so parallel tests do not share tables.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	name := fmt.Sprintf("file:l10n_test_%d?mode=memory&cache=shared&_fk=1", memoryDBSeq.Add(1))
	return sql.Open("sqlite3", name)
}

// NewBunDB opens a sqlite-backed bun database and creates a table for every
// model. The database is closed when the test ends.
func NewBunDB(tb testing.TB, models ...any) *bun.DB {
	tb.Helper()

	sqlDB, err := NewSQLiteMemoryDB()
	if err != nil {
		tb.Fatalf("new sqlite db: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			tb.Fatalf("create table for %T: %v", model, err)
		}
	}
	return db
}
