package stats

import (
	"context"
	"errors"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/google/uuid"
)

// Count builds a snapshot from key facts. Inactive keys and base translations
// are skipped and a key listed twice is counted once. The per-state aggregate
// only sums locales that requirements marks as required; per-locale buckets
// hold every target locale seen.
func Count(keys []KeyFacts, requirements locales.Requirements) *Snapshot {
	builder := newSnapshotBuilder()
	seen := make(map[uuid.UUID]struct{}, len(keys))

	for _, key := range keys {
		if !key.IsActive() {
			continue
		}
		if _, dup := seen[key.ID]; dup {
			continue
		}
		seen[key.ID] = struct{}{}

		for _, translation := range key.Translations {
			if translation.IsBase() || translation.TargetLocale.IsZero() {
				continue
			}
			builder.add(
				Classify(translation),
				translation.TargetLocale,
				max(translation.WordCount, 0),
				requirements.IsRequired(translation.TargetLocale),
			)
		}
	}

	return builder.build(len(seen))
}

// Compute loads the keys of container and counts them.
func Compute(ctx context.Context, container Container) (*Snapshot, error) {
	if container == nil {
		return nil, ErrContainerRequired
	}
	ref := container.Ref()
	if err := ref.Validate(); err != nil {
		return nil, &RecomputeError{Ref: ref, Stage: "validate", Err: err}
	}
	keys, err := container.Keys(ctx)
	if err != nil {
		return nil, &RecomputeError{Ref: ref, Stage: "load_keys", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &RecomputeError{Ref: ref, Stage: "load_keys", Err: err}
	}
	return Count(keys, container.LocaleRequirements()), nil
}

// IsRecomputeError reports whether err came from a failed recompute.
func IsRecomputeError(err error) bool {
	var target *RecomputeError
	return errors.As(err, &target)
}
