package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every environment variable read by LoadEnv.
const EnvPrefix = "L10N_"

var ErrStorageProviderUnknown = errors.New("l10n config: storage provider must be memory or bun")
var ErrStorageDialectUnknown = errors.New("l10n config: storage dialect must be sqlite or postgres")
var ErrStorageDSNRequired = errors.New("l10n config: storage dsn is required for bun storage")
var ErrStorageMaxOpenConnsInvalid = errors.New("l10n config: storage max open connections must be zero or positive")
var ErrCacheTTLInvalid = errors.New("l10n config: cache ttl must be zero or positive")
var ErrRecomputeTimeoutInvalid = errors.New("l10n config: recompute timeout must be zero or positive")
var ErrLoggingProviderRequired = errors.New("l10n config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("l10n config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("l10n config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("l10n config: logging format is invalid")

// Config aggregates storage, cache, stats and logging settings for the module.
type Config struct {
	Storage  StorageConfig `envPrefix:"STORAGE_"`
	Cache    CacheConfig   `envPrefix:"CACHE_"`
	Stats    StatsConfig   `envPrefix:"STATS_"`
	Logging  LoggingConfig `envPrefix:"LOG_"`
	Features Features      `envPrefix:"FEATURE_"`
}

// StorageConfig selects where catalog rows and snapshots live.
type StorageConfig struct {
	Provider     string `env:"PROVIDER"`
	Dialect      string `env:"DIALECT"`
	DSN          string `env:"DSN"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE"`
}

// CacheConfig captures the read cache in front of bun repositories.
type CacheConfig struct {
	Enabled    bool          `env:"ENABLED"`
	DefaultTTL time.Duration `env:"TTL"`
}

// StatsConfig controls recompute behaviour at the command boundary.
type StatsConfig struct {
	RecomputeTimeout time.Duration `env:"RECOMPUTE_TIMEOUT"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `env:"PROVIDER"`
	Level     string   `env:"LEVEL"`
	Format    string   `env:"FORMAT"`
	AddSource bool     `env:"ADD_SOURCE"`
	Focus     []string `env:"FOCUS"`
}

// Features toggles module functionality.
type Features struct {
	Logger   bool `env:"LOGGER"`
	Commands bool `env:"COMMANDS"`
}

// DefaultConfig keeps everything in memory with the console logger.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Provider:    "memory",
			Dialect:     "sqlite",
			AutoMigrate: true,
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Stats: StatsConfig{
			RecomputeTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{
			Commands: true,
		},
	}
}

// LoadEnv overlays L10N_* environment variables on top of base.
func LoadEnv(base Config) (Config, error) {
	cfg := base
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("l10n config: parse environment: %w", err)
	}
	return cfg, nil
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Provider) {
	case "memory":
	case "bun":
		if !isSupportedDialect(normalize(cfg.Storage.Dialect)) {
			return fmt.Errorf("%w: %s", ErrStorageDialectUnknown, cfg.Storage.Dialect)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if cfg.Storage.MaxOpenConns < 0 {
		return ErrStorageMaxOpenConnsInvalid
	}
	if cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Stats.RecomputeTimeout < 0 {
		return ErrRecomputeTimeoutInvalid
	}
	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// UsesBun reports whether catalog and snapshot rows go through bun.
func (cfg Config) UsesBun() bool {
	return normalize(cfg.Storage.Provider) == "bun"
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedDialect(dialect string) bool {
	switch dialect {
	case "sqlite", "postgres":
		return true
	default:
		return false
	}
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
