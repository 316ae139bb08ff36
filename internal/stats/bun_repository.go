package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var snapshotNamespace = uuid.MustParse("0b7c5a6e-3d1f-4f43-9a55-51f0c1e2d7a4")

// SnapshotRecord is the stats_snapshots row. Payload is stored as text so the
// bytes read back are the bytes that were written.
type SnapshotRecord struct {
	bun.BaseModel `bun:"table:stats_snapshots,alias:ss"`

	ID            uuid.UUID `bun:",pk,type:uuid" json:"id"`
	ContainerKey  string    `bun:"container_key,notnull,unique" json:"container_key"`
	ContainerKind string    `bun:"container_kind,notnull" json:"container_kind"`
	ContainerID   uuid.UUID `bun:"container_id,notnull,type:uuid" json:"container_id"`
	Payload       string    `bun:"payload,notnull,type:text" json:"payload"`
	ComputedAt    time.Time `bun:"computed_at,notnull" json:"computed_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// Models lists the bun models owned by this package.
func Models() []any {
	return []any{(*SnapshotRecord)(nil)}
}

// NewSnapshotRecordRepository builds the generic repository for snapshot rows.
func NewSnapshotRecordRepository(db *bun.DB) repository.Repository[*SnapshotRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*SnapshotRecord]{
		NewRecord: func() *SnapshotRecord { return &SnapshotRecord{} },
		GetID: func(record *SnapshotRecord) uuid.UUID {
			return record.ID
		},
		SetID: func(record *SnapshotRecord, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "container_key"
		},
		GetIdentifierValue: func(record *SnapshotRecord) string {
			return record.ContainerKey
		},
	})
}

// BunSnapshotRepository persists snapshots through go-repository-bun.
type BunSnapshotRepository struct {
	repo         repository.Repository[*SnapshotRecord]
	cacheService cache.CacheService
	cachePrefix  string
}

const snapshotCacheNamespace = "stats_snapshot"

// NewBunSnapshotRepository creates a repository without caching.
func NewBunSnapshotRepository(db *bun.DB) *BunSnapshotRepository {
	return NewBunSnapshotRepositoryWithCache(db, nil, nil)
}

// NewBunSnapshotRepositoryWithCache creates a repository with read caching.
// Put drops cached entries after every write.
func NewBunSnapshotRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunSnapshotRepository {
	base := NewSnapshotRecordRepository(db)
	r := &BunSnapshotRepository{}
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = snapshotCacheNamespace + cache.KeySeparator
	}
	r.repo = base
	return r
}

func (r *BunSnapshotRepository) Get(ctx context.Context, ref ContainerRef) (StoredSnapshot, error) {
	record, err := r.repo.GetByIdentifier(ctx, ref.String())
	if err != nil {
		return StoredSnapshot{}, mapRepositoryError(err, "snapshot", ref.String())
	}
	return recordToStored(record)
}

func (r *BunSnapshotRepository) Put(ctx context.Context, snapshot StoredSnapshot) error {
	if err := snapshot.Ref.Validate(); err != nil {
		return err
	}
	record := storedToRecord(snapshot)

	existing, err := r.repo.GetByIdentifier(ctx, record.ContainerKey)
	if err != nil {
		if !errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return mapRepositoryError(err, "snapshot", record.ContainerKey)
		}
		if _, err := r.repo.Create(ctx, record); err != nil {
			return fmt.Errorf("snapshot repository error: %w", err)
		}
		return r.InvalidateCache(ctx)
	}

	record.ID = existing.ID
	if _, err := r.repo.Update(ctx, record,
		repository.UpdateByID(record.ID.String()),
		repository.UpdateColumns("payload", "computed_at", "updated_at"),
	); err != nil {
		return fmt.Errorf("snapshot repository error: %w", err)
	}
	return r.InvalidateCache(ctx)
}

// InvalidateCache drops cached snapshot reads.
func (r *BunSnapshotRepository) InvalidateCache(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func storedToRecord(snapshot StoredSnapshot) *SnapshotRecord {
	key := snapshot.Ref.String()
	computed := snapshot.ComputedAt.UTC()
	if computed.IsZero() {
		computed = time.Now().UTC()
	}
	return &SnapshotRecord{
		ID:            uuid.NewSHA1(snapshotNamespace, []byte(key)),
		ContainerKey:  key,
		ContainerKind: string(snapshot.Ref.Kind),
		ContainerID:   snapshot.Ref.ID,
		Payload:       string(snapshot.Payload),
		ComputedAt:    computed,
		UpdatedAt:     time.Now().UTC(),
	}
}

func recordToStored(record *SnapshotRecord) (StoredSnapshot, error) {
	kind, err := ParseContainerKind(record.ContainerKind)
	if err != nil {
		return StoredSnapshot{}, err
	}
	return StoredSnapshot{
		Ref:        ContainerRef{Kind: kind, ID: record.ContainerID},
		Payload:    []byte(record.Payload),
		ComputedAt: record.ComputedAt,
	}, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
