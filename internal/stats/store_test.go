package stats_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/stats"
)

type failingRepository struct {
	*stats.MemorySnapshotRepository
	mu     sync.Mutex
	putErr error
	getErr error
}

func (r *failingRepository) Put(ctx context.Context, snapshot stats.StoredSnapshot) error {
	r.mu.Lock()
	err := r.putErr
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.MemorySnapshotRepository.Put(ctx, snapshot)
}

func (r *failingRepository) Get(ctx context.Context, ref stats.ContainerRef) (stats.StoredSnapshot, error) {
	r.mu.Lock()
	err := r.getErr
	r.mu.Unlock()
	if err != nil {
		return stats.StoredSnapshot{}, err
	}
	return r.MemorySnapshotRepository.Get(ctx, ref)
}

func fixedClock() func() time.Time {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestStoreRegisterInstallsEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	repo := stats.NewMemorySnapshotRepository()
	store := stats.NewStore(stats.WithRepository(repo), stats.WithClock(fixedClock()))
	ref := stats.ContainerRef{Kind: stats.KindArticle, ID: uuid.New()}

	if err := store.Register(ctx, ref); err != nil {
		t.Fatalf("register: %v", err)
	}
	snapshot, computedAt, ok := store.Peek(ref)
	if !ok || snapshot.StringsTotal() != 0 {
		t.Fatalf("expected empty snapshot installed, got %v %v", snapshot, ok)
	}
	if !computedAt.Equal(fixedClock()()) {
		t.Fatalf("unexpected computed at %v", computedAt)
	}
	stored, err := repo.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if string(stored.Payload) != `{"version":1,"strings_total":0,"states":{}}` {
		t.Fatalf("unexpected stored payload %s", stored.Payload)
	}

	if err := store.Register(ctx, stats.ContainerRef{Kind: "page", ID: uuid.New()}); !errors.Is(err, stats.ErrContainerKindInvalid) {
		t.Fatalf("expected kind error, got %v", err)
	}
	if err := store.Register(ctx, stats.ContainerRef{Kind: stats.KindCommit}); !errors.Is(err, stats.ErrContainerIDRequired) {
		t.Fatalf("expected id error, got %v", err)
	}
}

func TestStoreRecomputeAndQuery(t *testing.T) {
	ctx := context.Background()
	store := stats.NewStore()
	container := newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys())

	if _, err := store.Recompute(ctx, container); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	q, err := store.Query(ctx, container)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if q.TranslationsDone() != 2 || q.TranslationsTotal(fr, de, ja, xx) != 6 {
		t.Fatalf("unexpected query results done=%d total=%d", q.TranslationsDone(), q.TranslationsTotal(fr, de, ja, xx))
	}

	// Reads are served from the installed snapshot.
	loads := container.loads
	if _, err := store.Query(ctx, container); err != nil {
		t.Fatalf("query: %v", err)
	}
	if container.loads != loads {
		t.Fatalf("expected no reload, loads went from %d to %d", loads, container.loads)
	}
}

func TestStoreSnapshotComputesColdContainer(t *testing.T) {
	ctx := context.Background()
	store := stats.NewStore()
	container := newFakeContainer(stats.KindCommit, scenarioRequirements(), scenarioKeys())

	snapshot, err := store.Snapshot(ctx, container)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.StringsTotal() != 2 || container.loads != 1 {
		t.Fatalf("expected computed snapshot, strings=%d loads=%d", snapshot.StringsTotal(), container.loads)
	}
}

func TestStoreFailureKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := &failingRepository{MemorySnapshotRepository: stats.NewMemorySnapshotRepository()}
	store := stats.NewStore(stats.WithRepository(repo))
	container := newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys())

	before, err := store.Recompute(ctx, container)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	boom := errors.New("connection reset")
	container.set(nil, boom)
	if _, err := store.Recompute(ctx, container); !errors.Is(err, boom) || !errors.Is(err, stats.ErrRecomputeFailed) {
		t.Fatalf("expected fetch failure, got %v", err)
	}
	if current, _, _ := store.Peek(container.Ref()); current != before {
		t.Fatal("failed fetch replaced the installed snapshot")
	}

	keys := scenarioKeys()
	keys[0].Position = nil
	container.set(keys, nil)
	writeErr := errors.New("disk full")
	repo.mu.Lock()
	repo.putErr = writeErr
	repo.mu.Unlock()

	_, err = store.Recompute(ctx, container)
	var recomputeErr *stats.RecomputeError
	if !errors.As(err, &recomputeErr) || recomputeErr.Stage != "persist" || !errors.Is(err, writeErr) {
		t.Fatalf("expected persist failure, got %v", err)
	}
	if current, _, _ := store.Peek(container.Ref()); current != before {
		t.Fatal("failed persist replaced the installed snapshot")
	}
}

func TestStoreSkipsWriteWhenPayloadUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := stats.NewMemorySnapshotRepository()
	store := stats.NewStore(stats.WithRepository(repo))
	container := newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys())

	events := store.Subscribe(ctx)

	for range 3 {
		if _, err := store.Recompute(ctx, container); err != nil {
			t.Fatalf("recompute: %v", err)
		}
	}
	if repo.Writes() != 1 {
		t.Fatalf("expected one write, got %d", repo.Writes())
	}

	first := <-events
	second := <-events
	if !first.Persisted || second.Persisted {
		t.Fatalf("unexpected persisted flags %v %v", first.Persisted, second.Persisted)
	}
	if first.Ref != container.Ref() || first.StringsTotal != 2 {
		t.Fatalf("unexpected event %+v", first)
	}
}

func TestStoreTranslationTriggers(t *testing.T) {
	ctx := context.Background()
	store := stats.NewStore()
	container := newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys())
	if _, err := store.Recompute(ctx, container); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	loads := container.loads

	baseBefore, baseAfter := base(2), base(3)
	if err := store.OnTranslationChanged(ctx, container, stats.TranslationChange{Before: &baseBefore, After: &baseAfter}); err != nil {
		t.Fatalf("base change: %v", err)
	}
	if container.loads != loads {
		t.Fatal("base text change should not recompute")
	}

	keys := scenarioKeys()
	before := keys[1].Translations[3]
	after := before
	after.HasCopy = true
	keys[1].Translations[3] = after
	container.set(keys, nil)

	if err := store.OnTranslationChanged(ctx, container, stats.TranslationChange{Before: &before, After: &after}); err != nil {
		t.Fatalf("translation change: %v", err)
	}
	q, err := store.Query(ctx, container)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if q.TranslationsNew() != 0 || q.TranslationsPending() != 2 {
		t.Fatalf("expected ja draft to move to pending, new=%d pending=%d", q.TranslationsNew(), q.TranslationsPending())
	}
}

func TestStoreActiveKeyAndRequirementTriggers(t *testing.T) {
	ctx := context.Background()
	store := stats.NewStore()
	container := newFakeContainer(stats.KindCommit, scenarioRequirements(), scenarioKeys())
	if _, err := store.Recompute(ctx, container); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	keys := scenarioKeys()
	keys[1].SectionActive = false
	container.set(keys, nil)
	if err := store.OnActiveKeySetChanged(ctx, container); err != nil {
		t.Fatalf("active keys changed: %v", err)
	}
	snapshot, _, _ := store.Peek(container.Ref())
	if snapshot.StringsTotal() != 1 {
		t.Fatalf("expected 1 active string, got %d", snapshot.StringsTotal())
	}

	container.mu.Lock()
	container.reqs = scenarioRequirementsWithGerman()
	container.mu.Unlock()
	if err := store.OnLocaleRequirementsChanged(ctx, container); err != nil {
		t.Fatalf("requirements changed: %v", err)
	}
	snapshot, _, _ = store.Peek(container.Ref())
	if got := snapshot.Total(stats.StateApproved); got.Translations != 2 {
		t.Fatalf("expected fr+de approved in aggregate, got %+v", got)
	}
}

func TestStoreInvalidateReloadsPersistedSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := stats.NewMemorySnapshotRepository()
	store := stats.NewStore(stats.WithRepository(repo))
	container := newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys())

	if _, err := store.Recompute(ctx, container); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	store.Invalidate(container.Ref())
	if _, _, ok := store.Peek(container.Ref()); ok {
		t.Fatal("expected no installed snapshot after invalidate")
	}

	loads := container.loads
	snapshot, err := store.Snapshot(ctx, container)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if container.loads != loads {
		t.Fatal("persisted snapshot should be loaded, not recomputed")
	}
	if snapshot.StringsTotal() != 2 {
		t.Fatalf("unexpected reloaded snapshot %+v", snapshot.Document())
	}

	fresh := stats.NewStore(stats.WithRepository(repo))
	if _, err := fresh.Snapshot(ctx, container); err != nil {
		t.Fatalf("fresh store snapshot: %v", err)
	}
	if container.loads != loads {
		t.Fatal("a new store should reuse the persisted snapshot")
	}
}

func TestStoreDiscardsCorruptPersistedSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := stats.NewMemorySnapshotRepository()
	container := newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys())
	if err := repo.Put(ctx, stats.StoredSnapshot{Ref: container.Ref(), Payload: []byte(`{"version":9}`)}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store := stats.NewStore(stats.WithRepository(repo))
	snapshot, err := store.Snapshot(ctx, container)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.StringsTotal() != 2 || container.loads != 1 {
		t.Fatalf("expected recompute over corrupt payload, loads=%d", container.loads)
	}
}

func TestStoreLoadErrorIsReturned(t *testing.T) {
	boom := errors.New("timeout")
	repo := &failingRepository{MemorySnapshotRepository: stats.NewMemorySnapshotRepository(), getErr: boom}
	store := stats.NewStore(stats.WithRepository(repo))
	container := newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys())

	if _, err := store.Snapshot(context.Background(), container); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestStoreSerialisesConcurrentRecomputes(t *testing.T) {
	ctx := context.Background()
	store := stats.NewStore()
	containers := []*fakeContainer{
		newFakeContainer(stats.KindArticle, scenarioRequirements(), scenarioKeys()),
		newFakeContainer(stats.KindCommit, scenarioRequirements(), scenarioKeys()),
	}

	var wg sync.WaitGroup
	for _, container := range containers {
		for range 16 {
			wg.Add(2)
			go func() {
				defer wg.Done()
				if _, err := store.Recompute(ctx, container); err != nil {
					t.Errorf("recompute: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				q, err := store.Query(ctx, container)
				if err != nil {
					t.Errorf("query: %v", err)
					return
				}
				if q.TranslationsTotal() != 4 {
					t.Errorf("observed partial snapshot: total=%d", q.TranslationsTotal())
				}
			}()
		}
	}
	wg.Wait()

	for _, container := range containers {
		snapshot, _, ok := store.Peek(container.Ref())
		if !ok || snapshot.StringsTotal() != 2 {
			t.Fatalf("unexpected final snapshot for %s", container.Ref())
		}
	}
}

func TestStoreRejectsNilContainer(t *testing.T) {
	store := stats.NewStore()
	if _, err := store.Recompute(context.Background(), nil); !errors.Is(err, stats.ErrContainerRequired) {
		t.Fatalf("expected ErrContainerRequired, got %v", err)
	}
	if err := store.OnActiveKeySetChanged(context.Background(), nil); !errors.Is(err, stats.ErrContainerRequired) {
		t.Fatalf("expected ErrContainerRequired, got %v", err)
	}
}
