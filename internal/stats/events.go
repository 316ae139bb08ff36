package stats

import (
	"context"
	"sync"
	"time"
)

// SnapshotEvent is emitted after a snapshot has been installed.
type SnapshotEvent struct {
	Ref          ContainerRef
	StringsTotal int
	ComputedAt   time.Time
	// Persisted is false when the serialized payload was unchanged and the
	// write was skipped.
	Persisted bool
}

type snapshotBroadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan SnapshotEvent
	nextID   uint64
}

func newSnapshotBroadcaster() *snapshotBroadcaster {
	return &snapshotBroadcaster{
		watchers: make(map[uint64]chan SnapshotEvent),
	}
}

func (b *snapshotBroadcaster) Subscribe(ctx context.Context) <-chan SnapshotEvent {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		ch := make(chan SnapshotEvent)
		close(ch)
		return ch
	}
	ch := make(chan SnapshotEvent, 8)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.watchers, id)
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Broadcast never blocks; slow subscribers miss events.
func (b *snapshotBroadcaster) Broadcast(evt SnapshotEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}
