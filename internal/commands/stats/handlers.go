package statscmd

import (
	"context"
	"errors"

	"github.com/goliatone/go-l10n/internal/commands"
	"github.com/goliatone/go-l10n/internal/logging"
	"github.com/goliatone/go-l10n/internal/stats"
	"github.com/goliatone/go-l10n/pkg/interfaces"
)

// ErrCommandsDisabled is returned when stats commands are switched off.
var ErrCommandsDisabled = errors.New("stats commands: disabled")

// ContainerResolver looks up the live container behind a reference.
type ContainerResolver interface {
	Container(ctx context.Context, ref stats.ContainerRef) (stats.Container, error)
}

// Recomputer is the part of the stats store the handlers drive.
type Recomputer interface {
	Recompute(ctx context.Context, container stats.Container) (*stats.Snapshot, error)
	OnActiveKeySetChanged(ctx context.Context, container stats.Container) error
	OnLocaleRequirementsChanged(ctx context.Context, container stats.Container) error
}

// FeatureGates exposes runtime toggles consulted before each execution.
type FeatureGates struct {
	CommandsEnabled func() bool
}

func (g FeatureGates) commandsEnabled() bool {
	if g.CommandsEnabled == nil {
		return true
	}
	return g.CommandsEnabled()
}

// RecomputeStatsHandler rebuilds a container snapshot on demand.
type RecomputeStatsHandler struct {
	inner *commands.Handler[RecomputeStatsCommand]
}

// NewRecomputeStatsHandler constructs a handler wired to the store and resolver.
func NewRecomputeStatsHandler(store Recomputer, resolver ContainerResolver, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[RecomputeStatsCommand]) *RecomputeStatsHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg RecomputeStatsCommand) error {
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}
		ref, err := containerRef(msg.Kind, msg.ContainerID)
		if err != nil {
			return err
		}
		container, err := resolver.Container(ctx, ref)
		if err != nil {
			return err
		}
		snapshot, err := store.Recompute(ctx, container)
		if err != nil {
			return err
		}
		if msg.ResultCallback != nil {
			msg.ResultCallback(ResultEnvelope{
				Ref:      ref,
				Snapshot: snapshot,
				Metadata: map[string]any{
					"operation":     "recompute",
					"strings_total": snapshot.StringsTotal(),
				},
			})
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[RecomputeStatsCommand]{
		commands.WithLogger[RecomputeStatsCommand](baseLogger),
		commands.WithOperation[RecomputeStatsCommand]("stats.recompute"),
		commands.WithMessageFields(func(msg RecomputeStatsCommand) map[string]any {
			return refFields(msg.Kind, msg.ContainerID.String())
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RecomputeStatsCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RecomputeStatsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RecomputeStatsCommand].
func (h *RecomputeStatsHandler) Execute(ctx context.Context, msg RecomputeStatsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ActiveKeysChangedHandler forwards active key set changes to the store.
type ActiveKeysChangedHandler struct {
	inner *commands.Handler[ActiveKeysChangedCommand]
}

// NewActiveKeysChangedHandler constructs a handler wired to the store and resolver.
func NewActiveKeysChangedHandler(store Recomputer, resolver ContainerResolver, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ActiveKeysChangedCommand]) *ActiveKeysChangedHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ActiveKeysChangedCommand) error {
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}
		ref, err := containerRef(msg.Kind, msg.ContainerID)
		if err != nil {
			return err
		}
		container, err := resolver.Container(ctx, ref)
		if err != nil {
			return err
		}
		return store.OnActiveKeySetChanged(ctx, container)
	}

	handlerOpts := []commands.HandlerOption[ActiveKeysChangedCommand]{
		commands.WithLogger[ActiveKeysChangedCommand](baseLogger),
		commands.WithOperation[ActiveKeysChangedCommand]("stats.active_keys_changed"),
		commands.WithMessageFields(func(msg ActiveKeysChangedCommand) map[string]any {
			return refFields(msg.Kind, msg.ContainerID.String())
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ActiveKeysChangedCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ActiveKeysChangedHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ActiveKeysChangedCommand].
func (h *ActiveKeysChangedHandler) Execute(ctx context.Context, msg ActiveKeysChangedCommand) error {
	return h.inner.Execute(ctx, msg)
}

// LocaleRequirementsChangedHandler forwards locale requirement changes to the store.
type LocaleRequirementsChangedHandler struct {
	inner *commands.Handler[LocaleRequirementsChangedCommand]
}

// NewLocaleRequirementsChangedHandler constructs a handler wired to the store and resolver.
func NewLocaleRequirementsChangedHandler(store Recomputer, resolver ContainerResolver, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[LocaleRequirementsChangedCommand]) *LocaleRequirementsChangedHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg LocaleRequirementsChangedCommand) error {
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}
		ref, err := containerRef(msg.Kind, msg.ContainerID)
		if err != nil {
			return err
		}
		container, err := resolver.Container(ctx, ref)
		if err != nil {
			return err
		}
		return store.OnLocaleRequirementsChanged(ctx, container)
	}

	handlerOpts := []commands.HandlerOption[LocaleRequirementsChangedCommand]{
		commands.WithLogger[LocaleRequirementsChangedCommand](baseLogger),
		commands.WithOperation[LocaleRequirementsChangedCommand]("stats.locale_requirements_changed"),
		commands.WithMessageFields(func(msg LocaleRequirementsChangedCommand) map[string]any {
			return refFields(msg.Kind, msg.ContainerID.String())
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[LocaleRequirementsChangedCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &LocaleRequirementsChangedHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[LocaleRequirementsChangedCommand].
func (h *LocaleRequirementsChangedHandler) Execute(ctx context.Context, msg LocaleRequirementsChangedCommand) error {
	return h.inner.Execute(ctx, msg)
}

func refFields(kind, id string) map[string]any {
	return map[string]any{
		"container_kind": kind,
		"container_id":   id,
	}
}
