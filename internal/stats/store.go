package stats

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/logging"
	"github.com/goliatone/go-l10n/pkg/interfaces"
)

// Option configures a Store.
type Option func(*Store)

// WithRepository sets where serialized snapshots are persisted.
func WithRepository(repo SnapshotRepository) Option {
	return func(s *Store) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the timestamp source for ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRegistry sets the registry that resolves default query scopes.
func WithRegistry(registry *locales.Registry) Option {
	return func(s *Store) {
		if registry != nil {
			s.registry = registry
		}
	}
}

type installed struct {
	snapshot   *Snapshot
	payload    []byte
	computedAt time.Time
}

type entry struct {
	// mu serialises recomputes of one container. Readers never take it once
	// a snapshot is installed.
	mu      sync.Mutex
	current atomic.Pointer[installed]
}

// Store owns the cached snapshot of every container. Recomputes run
// synchronously on the caller's goroutine; concurrent triggers for the same
// container are applied one after another, and triggers for different
// containers do not block each other.
type Store struct {
	mu      sync.Mutex
	entries map[ContainerRef]*entry

	repo     SnapshotRepository
	logger   interfaces.Logger
	now      func() time.Time
	events   *snapshotBroadcaster
	registry *locales.Registry
}

// NewStore constructs a store. Without WithRepository snapshots are kept in a
// MemorySnapshotRepository.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[ContainerRef]*entry),
		logger:  logging.NoOp(),
		now:     time.Now,
		events:  newSnapshotBroadcaster(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.repo == nil {
		s.repo = NewMemorySnapshotRepository()
	}
	if s.registry == nil {
		s.registry = locales.NewRegistry()
	}
	return s
}

func (s *Store) entry(ref ContainerRef) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ref]
	if !ok {
		e = &entry{}
		s.entries[ref] = e
	}
	return e
}

func (s *Store) lookup(ref ContainerRef) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ref]
	return e, ok
}

func (s *Store) containerLogger(ctx context.Context, ref ContainerRef) interfaces.Logger {
	return logging.WithContainer(s.logger, string(ref.Kind), ref.ID.String()).WithContext(ctx)
}

// Register installs the empty snapshot for a newly created container. A
// snapshot persisted earlier is loaded instead of being overwritten.
func (s *Store) Register(ctx context.Context, ref ContainerRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	e := s.entry(ref)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current.Load() != nil {
		return nil
	}
	if ok, err := s.loadLocked(ctx, e, ref); err != nil || ok {
		return err
	}
	return s.installLocked(ctx, e, ref, Empty())
}

// Recompute rebuilds, persists and installs the snapshot of container. On
// failure the previous snapshot stays installed and a *RecomputeError is
// returned.
func (s *Store) Recompute(ctx context.Context, container Container) (*Snapshot, error) {
	if container == nil {
		return nil, ErrContainerRequired
	}
	ref := container.Ref()
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	e := s.entry(ref)
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.recomputeLocked(ctx, e, container)
}

func (s *Store) recomputeLocked(ctx context.Context, e *entry, container Container) (*Snapshot, error) {
	ref := container.Ref()
	logger := s.containerLogger(ctx, ref)
	logger.Debug("stats.recompute.start")

	snapshot, err := Compute(ctx, container)
	if err != nil {
		logger.Error("stats.recompute.failed", "error", err)
		return nil, err
	}
	if err := s.installLocked(ctx, e, ref, snapshot); err != nil {
		logger.Error("stats.recompute.failed", "error", err)
		return nil, err
	}
	logger.Info("stats.recompute.success", "strings_total", snapshot.StringsTotal())
	return snapshot, nil
}

func (s *Store) installLocked(ctx context.Context, e *entry, ref ContainerRef, snapshot *Snapshot) error {
	payload, err := snapshot.Serialize()
	if err != nil {
		return &RecomputeError{Ref: ref, Stage: "serialize", Err: err}
	}
	computedAt := s.now().UTC()

	previous := e.current.Load()
	persisted := false
	if previous == nil || !bytes.Equal(previous.payload, payload) {
		if err := s.repo.Put(ctx, StoredSnapshot{Ref: ref, Payload: payload, ComputedAt: computedAt}); err != nil {
			return &RecomputeError{Ref: ref, Stage: "persist", Err: err}
		}
		persisted = true
	}

	e.current.Store(&installed{snapshot: snapshot, payload: payload, computedAt: computedAt})
	s.events.Broadcast(SnapshotEvent{
		Ref:          ref,
		StringsTotal: snapshot.StringsTotal(),
		ComputedAt:   computedAt,
		Persisted:    persisted,
	})
	return nil
}

// loadLocked installs the persisted snapshot, reporting false when there is
// nothing usable to load.
func (s *Store) loadLocked(ctx context.Context, e *entry, ref ContainerRef) (bool, error) {
	stored, err := s.repo.Get(ctx, ref)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, &RecomputeError{Ref: ref, Stage: "load", Err: err}
	}
	snapshot, err := Deserialize(stored.Payload)
	if err != nil {
		s.containerLogger(ctx, ref).Warn("stats.snapshot.discarded", "error", err)
		return false, nil
	}
	e.current.Store(&installed{snapshot: snapshot, payload: stored.Payload, computedAt: stored.ComputedAt})
	return true, nil
}

// Snapshot returns the installed snapshot of container. A container that has
// no installed snapshot is loaded from the repository, and computed when
// nothing valid was persisted.
func (s *Store) Snapshot(ctx context.Context, container Container) (*Snapshot, error) {
	if container == nil {
		return nil, ErrContainerRequired
	}
	ref := container.Ref()
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	e := s.entry(ref)
	if current := e.current.Load(); current != nil {
		return current.snapshot, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if current := e.current.Load(); current != nil {
		return current.snapshot, nil
	}
	ok, err := s.loadLocked(ctx, e, ref)
	if err != nil {
		return nil, err
	}
	if ok {
		return e.current.Load().snapshot, nil
	}
	return s.recomputeLocked(ctx, e, container)
}

// Query returns a query bound to the container's current requirements.
func (s *Store) Query(ctx context.Context, container Container) (Query, error) {
	snapshot, err := s.Snapshot(ctx, container)
	if err != nil {
		return Query{}, err
	}
	return newQuery(snapshot, container.LocaleRequirements(), s.registry.RequiredLocales(container)), nil
}

// Peek returns the installed snapshot without loading or computing.
func (s *Store) Peek(ref ContainerRef) (*Snapshot, time.Time, bool) {
	e, ok := s.lookup(ref)
	if !ok {
		return nil, time.Time{}, false
	}
	current := e.current.Load()
	if current == nil {
		return nil, time.Time{}, false
	}
	return current.snapshot, current.computedAt, true
}

// Invalidate drops the installed snapshot; the next read reloads it.
func (s *Store) Invalidate(ref ContainerRef) {
	e, ok := s.lookup(ref)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current.Store(nil)
}

// OnTranslationChanged recomputes when the change can affect any count.
func (s *Store) OnTranslationChanged(ctx context.Context, container Container, change TranslationChange) error {
	if !change.RequiresRecompute() {
		if container != nil {
			s.containerLogger(ctx, container.Ref()).Trace("stats.recompute.skipped")
		}
		return nil
	}
	_, err := s.Recompute(ctx, container)
	return err
}

// OnActiveKeySetChanged recomputes after keys moved in or out of the active
// ordering or a section was toggled.
func (s *Store) OnActiveKeySetChanged(ctx context.Context, container Container) error {
	_, err := s.Recompute(ctx, container)
	return err
}

// OnLocaleRequirementsChanged recomputes after the container's targeted or
// required locales changed; the stored aggregates depend on them.
func (s *Store) OnLocaleRequirementsChanged(ctx context.Context, container Container) error {
	_, err := s.Recompute(ctx, container)
	return err
}

// Subscribe delivers install events until ctx is cancelled.
func (s *Store) Subscribe(ctx context.Context) <-chan SnapshotEvent {
	return s.events.Subscribe(ctx)
}
