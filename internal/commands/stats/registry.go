package statscmd

import (
	"errors"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-l10n/internal/commands"
	"github.com/goliatone/go-l10n/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Subscription is returned by dispatcher registration.
type Subscription interface {
	Unsubscribe()
}

// HandlerSet groups the handlers produced by RegisterStatsCommands.
type HandlerSet struct {
	Recompute                 *RecomputeStatsHandler
	ActiveKeysChanged         *ActiveKeysChangedHandler
	LocaleRequirementsChanged *LocaleRequirementsChangedHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	recomputeOpts  []commands.HandlerOption[RecomputeStatsCommand]
	activeKeysOpts []commands.HandlerOption[ActiveKeysChangedCommand]
	localesOpts    []commands.HandlerOption[LocaleRequirementsChangedCommand]
}

// WithRecomputeHandlerOptions forwards options to the RecomputeStatsHandler constructor.
func WithRecomputeHandlerOptions(opts ...commands.HandlerOption[RecomputeStatsCommand]) Option {
	return func(cfg *options) {
		cfg.recomputeOpts = append(cfg.recomputeOpts, opts...)
	}
}

// WithActiveKeysHandlerOptions forwards options to the ActiveKeysChangedHandler constructor.
func WithActiveKeysHandlerOptions(opts ...commands.HandlerOption[ActiveKeysChangedCommand]) Option {
	return func(cfg *options) {
		cfg.activeKeysOpts = append(cfg.activeKeysOpts, opts...)
	}
}

// WithLocaleRequirementsHandlerOptions forwards options to the LocaleRequirementsChangedHandler constructor.
func WithLocaleRequirementsHandlerOptions(opts ...commands.HandlerOption[LocaleRequirementsChangedCommand]) Option {
	return func(cfg *options) {
		cfg.localesOpts = append(cfg.localesOpts, opts...)
	}
}

// RegisterStatsCommands builds the stats handlers and registers them with reg
// when it is not nil.
func RegisterStatsCommands(reg CommandRegistry, store Recomputer, resolver ContainerResolver, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if store == nil {
		return nil, errors.New("stats command registration: store is nil")
	}
	if resolver == nil {
		return nil, errors.New("stats command registration: resolver is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "stats")
	set := &HandlerSet{
		Recompute:                 NewRecomputeStatsHandler(store, resolver, logger, gates, cfg.recomputeOpts...),
		ActiveKeysChanged:         NewActiveKeysChangedHandler(store, resolver, logger, gates, cfg.activeKeysOpts...),
		LocaleRequirementsChanged: NewLocaleRequirementsChangedHandler(store, resolver, logger, gates, cfg.localesOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Recompute, set.ActiveKeysChanged, set.LocaleRequirementsChanged} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Subscribe attaches every handler of the set to the go-command dispatcher.
func (s *HandlerSet) Subscribe(runnerOpts ...runner.Option) []Subscription {
	if s == nil {
		return nil
	}
	return []Subscription{
		dispatcher.SubscribeCommand(s.Recompute, runnerOpts...),
		dispatcher.SubscribeCommand(s.ActiveKeysChanged, runnerOpts...),
		dispatcher.SubscribeCommand(s.LocaleRequirementsChanged, runnerOpts...),
	}
}
