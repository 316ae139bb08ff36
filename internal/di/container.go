package di

import (
	"context"
	"os"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-l10n/internal/catalog"
	"github.com/goliatone/go-l10n/internal/commands"
	statscmd "github.com/goliatone/go-l10n/internal/commands/stats"
	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/logging"
	"github.com/goliatone/go-l10n/internal/logging/console"
	"github.com/goliatone/go-l10n/internal/logging/gologger"
	"github.com/goliatone/go-l10n/internal/runtimeconfig"
	"github.com/goliatone/go-l10n/internal/stats"
	"github.com/goliatone/go-l10n/internal/storage"
	"github.com/goliatone/go-l10n/pkg/interfaces"
)

// Container wires the catalog, the stats store and the command handlers.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	bunDB   *bun.DB
	ownedDB bool

	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	catalogRepo  catalog.Repository
	snapshotRepo stats.SnapshotRepository

	registry   *locales.Registry
	store      *stats.Store
	catalogSvc catalog.Service

	commandRegistry statscmd.CommandRegistry
	commandHandlers *statscmd.HandlerSet
	subscriptions   []statscmd.Subscription
	subscribe       bool

	clock func() time.Time
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB supplies an already opened database. The container does not
// close it.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the cache service used in front of bun repositories.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithLoggerProvider replaces the logger provider derived from config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCatalogRepository overrides catalog storage.
func WithCatalogRepository(repo catalog.Repository) Option {
	return func(c *Container) {
		c.catalogRepo = repo
	}
}

// WithSnapshotRepository overrides snapshot storage.
func WithSnapshotRepository(repo stats.SnapshotRepository) Option {
	return func(c *Container) {
		c.snapshotRepo = repo
	}
}

// WithCommandRegistry registers the stats handlers with reg.
func WithCommandRegistry(reg statscmd.CommandRegistry) Option {
	return func(c *Container) {
		c.commandRegistry = reg
	}
}

// WithDispatcherSubscription subscribes the stats handlers to the go-command
// dispatcher.
func WithDispatcherSubscription() Option {
	return func(c *Container) {
		c.subscribe = true
	}
}

// WithClock overrides the time source used for records and snapshots.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		c.clock = now
	}
}

// NewContainer validates cfg and builds the runtime graph.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(context.Background()); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	c.configureRepositories()

	c.registry = locales.NewRegistry()
	c.store = stats.NewStore(
		stats.WithRepository(c.snapshotRepo),
		stats.WithRegistry(c.registry),
		stats.WithLogger(logging.StatsLogger(c.loggerProvider)),
		stats.WithClock(c.clock),
	)
	c.catalogSvc = catalog.NewService(c.catalogRepo,
		catalog.WithNotifier(c.store),
		catalog.WithLogger(logging.CatalogLogger(c.loggerProvider)),
		catalog.WithNow(c.clock),
	)

	if err := c.configureCommands(); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.logger.Debug("l10n.container.ready",
		"storage", strings.ToLower(cfg.Storage.Provider),
		"cache", c.cacheService != nil,
		"commands", c.commandHandlers != nil,
	)
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider == nil && c.Config.Features.Logger {
		logCfg := c.Config.Logging
		switch strings.ToLower(strings.TrimSpace(logCfg.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     logCfg.Level,
				Format:    logCfg.Format,
				AddSource: logCfg.AddSource,
				Focus:     logCfg.Focus,
			})
			if err != nil {
				return err
			}
			c.loggerProvider = provider
		default:
			level := console.ParseLevel(logCfg.Level)
			c.loggerProvider = console.NewProvider(console.Options{
				Writer:   os.Stderr,
				MinLevel: &level,
			})
		}
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "l10n.container")
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.bunDB != nil || !c.Config.UsesBun() {
		return c.migrate(ctx)
	}
	db, err := storage.Open(ctx, storage.Options{
		Dialect:      c.Config.Storage.Dialect,
		DSN:          c.Config.Storage.DSN,
		MaxOpenConns: c.Config.Storage.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	c.bunDB = db
	c.ownedDB = true
	if err := c.migrate(ctx); err != nil {
		_ = c.Close()
		return err
	}
	return nil
}

func (c *Container) migrate(ctx context.Context) error {
	if c.bunDB == nil || !c.Config.Storage.AutoMigrate {
		return nil
	}
	models := append(catalog.Models(), stats.Models()...)
	if err := storage.EnsureSchema(ctx, c.bunDB, models...); err != nil {
		return err
	}
	logging.StorageLogger(c.loggerProvider).Info("storage.schema.ensured", "tables", len(models))
	return nil
}

func (c *Container) configureCacheDefaults() {
	if c.Config.Cache.Enabled && c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		} else {
			c.logger.Warn("l10n.cache.disabled", "error", err)
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRepositories() {
	if c.bunDB != nil {
		if c.catalogRepo == nil {
			if c.cacheService != nil {
				c.catalogRepo = catalog.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
			} else {
				c.catalogRepo = catalog.NewBunRepository(c.bunDB)
			}
		}
		if c.snapshotRepo == nil {
			if c.cacheService != nil {
				c.snapshotRepo = stats.NewBunSnapshotRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
			} else {
				c.snapshotRepo = stats.NewBunSnapshotRepository(c.bunDB)
			}
		}
	}
	if c.catalogRepo == nil {
		c.catalogRepo = catalog.NewMemoryRepository()
	}
	if c.snapshotRepo == nil {
		c.snapshotRepo = stats.NewMemorySnapshotRepository()
	}
}

func (c *Container) configureCommands() error {
	if !c.Config.Features.Commands {
		return nil
	}
	timeout := c.Config.Stats.RecomputeTimeout
	set, err := statscmd.RegisterStatsCommands(
		c.commandRegistry,
		c.store,
		c.catalogSvc,
		c.loggerProvider,
		statscmd.FeatureGates{CommandsEnabled: func() bool { return c.Config.Features.Commands }},
		statscmd.WithRecomputeHandlerOptions(commands.WithTimeout[statscmd.RecomputeStatsCommand](timeout)),
		statscmd.WithActiveKeysHandlerOptions(commands.WithTimeout[statscmd.ActiveKeysChangedCommand](timeout)),
		statscmd.WithLocaleRequirementsHandlerOptions(commands.WithTimeout[statscmd.LocaleRequirementsChangedCommand](timeout)),
	)
	if err != nil {
		return err
	}
	c.commandHandlers = set
	if c.subscribe {
		c.subscriptions = set.Subscribe()
	}
	logging.CommandsLogger(c.loggerProvider).Debug("commands.stats.registered",
		"registry", c.commandRegistry != nil,
		"dispatcher", c.subscribe,
		"timeout", timeout,
	)
	return nil
}

// Catalog returns the catalog service.
func (c *Container) Catalog() catalog.Service {
	return c.catalogSvc
}

// Locales returns the registry shared by the store and the module facade.
func (c *Container) Locales() *locales.Registry {
	return c.registry
}

// Store returns the snapshot store.
func (c *Container) Store() *stats.Store {
	return c.store
}

// CatalogRepository exposes the repository behind the catalog service.
func (c *Container) CatalogRepository() catalog.Repository {
	return c.catalogRepo
}

// SnapshotRepository exposes where snapshots are persisted.
func (c *Container) SnapshotRepository() stats.SnapshotRepository {
	return c.snapshotRepo
}

// CommandHandlers returns the stats handlers, or nil when commands are off.
func (c *Container) CommandHandlers() *statscmd.HandlerSet {
	return c.commandHandlers
}

// LoggerProvider returns the provider every module logger is derived from.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// BunDB returns the database handle, nil for memory storage.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// Close releases dispatcher subscriptions and any database the container
// opened itself.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	for _, sub := range c.subscriptions {
		sub.Unsubscribe()
	}
	c.subscriptions = nil

	if !c.ownedDB || c.bunDB == nil {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	c.ownedDB = false
	return err
}
