package stats

import (
	"context"
	"slices"
	"sync"
)

// MemorySnapshotRepository keeps persisted snapshots in a map.
type MemorySnapshotRepository struct {
	mu      sync.RWMutex
	records map[ContainerRef]StoredSnapshot
	puts    int
}

// NewMemorySnapshotRepository constructs an empty repository.
func NewMemorySnapshotRepository() *MemorySnapshotRepository {
	return &MemorySnapshotRepository{
		records: make(map[ContainerRef]StoredSnapshot),
	}
}

func (r *MemorySnapshotRepository) Get(_ context.Context, ref ContainerRef) (StoredSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[ref]
	if !ok {
		return StoredSnapshot{}, &NotFoundError{Resource: "snapshot", Key: ref.String()}
	}
	record.Payload = slices.Clone(record.Payload)
	return record, nil
}

func (r *MemorySnapshotRepository) Put(ctx context.Context, snapshot StoredSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snapshot.Ref.Validate(); err != nil {
		return err
	}
	snapshot.Payload = slices.Clone(snapshot.Payload)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[snapshot.Ref] = snapshot
	r.puts++
	return nil
}

// Writes returns how many times Put succeeded.
func (r *MemorySnapshotRepository) Writes() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.puts
}
