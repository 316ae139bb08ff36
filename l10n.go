package l10n

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/catalog"
	statscmd "github.com/goliatone/go-l10n/internal/commands/stats"
	"github.com/goliatone/go-l10n/internal/di"
	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/stats"
	"github.com/goliatone/go-l10n/pkg/interfaces"
)

// CatalogService exports the catalog mutation contract.
type CatalogService = catalog.Service

// Catalog records and input DTOs.
type (
	CreateProjectInput     = catalog.CreateProjectInput
	CreateArticleInput     = catalog.CreateArticleInput
	AddSectionInput        = catalog.AddSectionInput
	AddKeyInput            = catalog.AddKeyInput
	CreateCommitInput      = catalog.CreateCommitInput
	UpsertTranslationInput = catalog.UpsertTranslationInput
	ReviewTranslationInput = catalog.ReviewTranslationInput
	Project                = catalog.Project
	Article                = catalog.Article
	Section                = catalog.Section
	Key                    = catalog.Key
	Translation            = catalog.Translation
	Commit                 = catalog.Commit
)

// Command surface.
type (
	CommandHandlers                  = statscmd.HandlerSet
	CommandRegistry                  = statscmd.CommandRegistry
	CommandResultEnvelope            = statscmd.ResultEnvelope
	RecomputeStatsCommand            = statscmd.RecomputeStatsCommand
	ActiveKeysChangedCommand         = statscmd.ActiveKeysChangedCommand
	LocaleRequirementsChangedCommand = statscmd.LocaleRequirementsChangedCommand
)

type (
	Logger         = interfaces.Logger
	LoggerProvider = interfaces.LoggerProvider
)

// Statistics types.
type (
	Locale          = locales.Locale
	Requirements    = locales.Requirements
	ContainerKind   = stats.ContainerKind
	ContainerRef    = stats.ContainerRef
	Snapshot        = stats.Snapshot
	Query           = stats.Query
	State           = stats.State
	Tally           = stats.Tally
	LocaleBreakdown = stats.LocaleBreakdown
	Readiness       = stats.Readiness
	ContainerQuery  = stats.ContainerQuery
	SnapshotEvent   = stats.SnapshotEvent
	NotFoundError   = stats.NotFoundError
	RecomputeError  = stats.RecomputeError
)

const (
	KindArticle = stats.KindArticle
	KindCommit  = stats.KindCommit

	StateApproved = stats.StateApproved
	StatePending  = stats.StatePending
	StateNew      = stats.StateNew

	ReadinessAll         = stats.ReadinessAll
	ReadinessCompleted   = stats.ReadinessCompleted
	ReadinessUncompleted = stats.ReadinessUncompleted
)

// ParseLocale canonicalises a locale code.
func ParseLocale(code string) (Locale, error) {
	return locales.Parse(code)
}

// ParseContainerKind accepts "article" or "commit".
func ParseContainerKind(value string) (ContainerKind, error) {
	return stats.ParseContainerKind(value)
}

// ParseReadiness accepts "completed", "uncompleted" or "all".
func ParseReadiness(value string) (Readiness, error) {
	return stats.ParseReadiness(value)
}

// IsNotFound reports whether err is a missing container or record.
func IsNotFound(err error) bool {
	return stats.IsNotFound(err) || catalog.IsNotFound(err)
}

// Option customises module wiring.
type Option = di.Option

var (
	WithBunDB                  = di.WithBunDB
	WithCache                  = di.WithCache
	WithLoggerProvider         = di.WithLoggerProvider
	WithCommandRegistry        = di.WithCommandRegistry
	WithDispatcherSubscription = di.WithDispatcherSubscription
	WithClock                  = di.WithClock
)

// Module represents the top level l10n runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Catalog returns the catalog service. Every mutation keeps the affected
// snapshots current before returning.
func (m *Module) Catalog() CatalogService {
	return m.container.Catalog()
}

// Commands returns the stats command handlers, nil when commands are disabled.
func (m *Module) Commands() *CommandHandlers {
	return m.container.CommandHandlers()
}

// Stats returns a query over the current snapshot of ref.
func (m *Module) Stats(ctx context.Context, ref ContainerRef) (Query, error) {
	container, err := m.resolve(ctx, ref)
	if err != nil {
		return Query{}, err
	}
	return m.container.Store().Query(ctx, container)
}

// Snapshot returns the current snapshot of ref.
func (m *Module) Snapshot(ctx context.Context, ref ContainerRef) (*Snapshot, error) {
	container, err := m.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return m.container.Store().Snapshot(ctx, container)
}

// Recompute rebuilds the snapshot of ref from the catalog.
func (m *Module) Recompute(ctx context.Context, ref ContainerRef) (*Snapshot, error) {
	container, err := m.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return m.container.Store().Recompute(ctx, container)
}

// ListContainers returns the articles and commits of a project whose
// readiness over scope matches status, articles first.
func (m *Module) ListContainers(ctx context.Context, projectID uuid.UUID, status Readiness, scope ...Locale) ([]ContainerQuery, error) {
	containers, err := m.container.Catalog().Containers(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return m.container.Store().Filter(ctx, containers, status, scope...)
}

// ResolveLocales canonicalises codes through the module's locale registry.
func (m *Module) ResolveLocales(codes ...string) ([]Locale, error) {
	return m.container.Locales().Resolve(codes...)
}

// Subscribe delivers snapshot install events until ctx is cancelled.
func (m *Module) Subscribe(ctx context.Context) <-chan SnapshotEvent {
	return m.container.Store().Subscribe(ctx)
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

func (m *Module) resolve(ctx context.Context, ref ContainerRef) (stats.Container, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return m.container.Catalog().Container(ctx, ref)
}
