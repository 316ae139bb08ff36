package statscmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/stats"
)

const (
	recomputeStatsMessageType            = "l10n.stats.recompute"
	activeKeysChangedMessageType         = "l10n.stats.active_keys_changed"
	localeRequirementsChangedMessageType = "l10n.stats.locale_requirements_changed"
)

// ResultCallback receives the snapshot installed by a command. It is invoked
// synchronously from the handler.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope carries the outcome of a stats command.
type ResultEnvelope struct {
	Ref      stats.ContainerRef
	Snapshot *stats.Snapshot
	Metadata map[string]any
}

// RecomputeStatsCommand rebuilds the snapshot of one article or commit.
type RecomputeStatsCommand struct {
	Kind           string         `json:"kind"`
	ContainerID    uuid.UUID      `json:"container_id"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (RecomputeStatsCommand) Type() string { return recomputeStatsMessageType }

// Validate ensures the command names a container.
func (m RecomputeStatsCommand) Validate() error {
	return validateRef(recomputeStatsMessageType, m.Kind, m.ContainerID)
}

// ActiveKeysChangedCommand reports that keys moved in or out of a container's
// active ordering.
type ActiveKeysChangedCommand struct {
	Kind        string    `json:"kind"`
	ContainerID uuid.UUID `json:"container_id"`
}

// Type implements command.Message.
func (ActiveKeysChangedCommand) Type() string { return activeKeysChangedMessageType }

// Validate ensures the command names a container.
func (m ActiveKeysChangedCommand) Validate() error {
	return validateRef(activeKeysChangedMessageType, m.Kind, m.ContainerID)
}

// LocaleRequirementsChangedCommand reports that a container's targeted or
// required locales changed.
type LocaleRequirementsChangedCommand struct {
	Kind        string    `json:"kind"`
	ContainerID uuid.UUID `json:"container_id"`
}

// Type implements command.Message.
func (LocaleRequirementsChangedCommand) Type() string { return localeRequirementsChangedMessageType }

// Validate ensures the command names a container.
func (m LocaleRequirementsChangedCommand) Validate() error {
	return validateRef(localeRequirementsChangedMessageType, m.Kind, m.ContainerID)
}

func validateRef(prefix, kind string, id uuid.UUID) error {
	errs := validation.Errors{}
	if err := validation.Validate(kind,
		validation.Required.ErrorObject(validation.NewError(prefix+".kind_required", "kind is required")),
		validation.By(func(value any) error {
			if _, err := stats.ParseContainerKind(value.(string)); err != nil {
				return validation.NewError(prefix+".kind_invalid", "kind must be article or commit")
			}
			return nil
		}),
	); err != nil {
		errs["kind"] = err
	}
	if id == uuid.Nil {
		errs["container_id"] = validation.NewError(prefix+".container_id_required", "container_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func containerRef(kind string, id uuid.UUID) (stats.ContainerRef, error) {
	parsed, err := stats.ParseContainerKind(kind)
	if err != nil {
		return stats.ContainerRef{}, err
	}
	return stats.ContainerRef{Kind: parsed, ID: id}, nil
}
