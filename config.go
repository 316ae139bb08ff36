package l10n

import "github.com/goliatone/go-l10n/internal/runtimeconfig"

var (
	ErrStorageProviderUnknown     = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDialectUnknown      = runtimeconfig.ErrStorageDialectUnknown
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrStorageMaxOpenConnsInvalid = runtimeconfig.ErrStorageMaxOpenConnsInvalid
	ErrCacheTTLInvalid            = runtimeconfig.ErrCacheTTLInvalid
	ErrRecomputeTimeoutInvalid    = runtimeconfig.ErrRecomputeTimeoutInvalid
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config        = runtimeconfig.Config
	StorageConfig = runtimeconfig.StorageConfig
	CacheConfig   = runtimeconfig.CacheConfig
	StatsConfig   = runtimeconfig.StatsConfig
	LoggingConfig = runtimeconfig.LoggingConfig
	Features      = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfigFromEnv overlays L10N_* environment variables on the defaults.
func LoadConfigFromEnv() (Config, error) {
	return runtimeconfig.LoadEnv(runtimeconfig.DefaultConfig())
}
