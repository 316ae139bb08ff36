package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/catalog"
	"github.com/goliatone/go-l10n/internal/stats"
	"github.com/goliatone/go-l10n/internal/storage"
)

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := storage.Open(context.Background(), storage.Options{Dialect: "sqlite"}); !errors.Is(err, storage.ErrDSNRequired) {
		t.Fatalf("expected ErrDSNRequired, got %v", err)
	}
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := storage.Open(context.Background(), storage.Options{Dialect: "oracle", DSN: "x"})
	if !errors.Is(err, storage.ErrDialectUnknown) {
		t.Fatalf("expected ErrDialectUnknown, got %v", err)
	}
}

func TestEnsureSchemaCreatesTablesIdempotently(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Options{Dialect: storage.DialectSQLite, DSN: "file:storage_schema?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	models := append(catalog.Models(), stats.Models()...)
	if err := storage.EnsureSchema(ctx, db, models...); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := storage.EnsureSchema(ctx, db, models...); err != nil {
		t.Fatalf("EnsureSchema() second run error = %v", err)
	}

	repo := stats.NewBunSnapshotRepository(db)
	ref := stats.ContainerRef{Kind: stats.KindCommit, ID: uuid.New()}
	if err := repo.Put(ctx, stats.StoredSnapshot{Ref: ref, Payload: []byte(`{"version":1,"strings_total":0,"states":{}}`), ComputedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, err := repo.Get(ctx, ref); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
}
