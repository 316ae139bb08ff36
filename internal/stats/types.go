package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/google/uuid"
)

var (
	ErrContainerRequired    = errors.New("stats: container is required")
	ErrContainerKindInvalid = errors.New("stats: container kind must be article or commit")
	ErrContainerIDRequired  = errors.New("stats: container id is required")
	ErrSnapshotInvalid      = errors.New("stats: snapshot document is invalid")
	ErrRecomputeFailed      = errors.New("stats: recompute failed")
	ErrReadinessUnknown     = errors.New("stats: readiness must be completed, uncompleted or all")
)

// ContainerKind names the aggregation roots that carry statistics.
type ContainerKind string

const (
	KindArticle ContainerKind = "article"
	KindCommit  ContainerKind = "commit"
)

// ParseContainerKind normalises a kind string.
func ParseContainerKind(value string) (ContainerKind, error) {
	switch kind := ContainerKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case KindArticle, KindCommit:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrContainerKindInvalid, value)
	}
}

// ContainerRef identifies one container. It is comparable and used as the
// store key.
type ContainerRef struct {
	Kind ContainerKind
	ID   uuid.UUID
}

// Validate reports malformed references.
func (r ContainerRef) Validate() error {
	if r.Kind != KindArticle && r.Kind != KindCommit {
		return ErrContainerKindInvalid
	}
	if r.ID == uuid.Nil {
		return ErrContainerIDRequired
	}
	return nil
}

func (r ContainerRef) String() string {
	return string(r.Kind) + ":" + r.ID.String()
}

// Container is the capability shared by articles and commits. Implementations
// load keys from their own storage; the counter decides which are active.
type Container interface {
	Ref() ContainerRef
	LocaleRequirements() locales.Requirements
	Keys(ctx context.Context) ([]KeyFacts, error)
}

// KeyFacts is the statistics view of one key.
type KeyFacts struct {
	ID uuid.UUID
	// Position is the ordering slot; nil means the key was removed from the
	// active ordering.
	Position      *int
	SectionActive bool
	Translations  []TranslationFacts
}

// IsActive reports whether the key participates in statistics.
func (k KeyFacts) IsActive() bool {
	return k.Position != nil && k.SectionActive
}

// TranslationFacts carries the fields of a translation that statistics read.
type TranslationFacts struct {
	TargetLocale locales.Locale
	SourceLocale locales.Locale
	Approval     Approval
	HasCopy      bool
	WordCount    int
}

// IsBase reports whether the translation is the original source text.
func (t TranslationFacts) IsBase() bool {
	return t.TargetLocale == t.SourceLocale
}

// TranslationChange describes a translation mutation. Before is nil for a new
// translation, After is nil for a deleted one.
type TranslationChange struct {
	Before *TranslationFacts
	After  *TranslationFacts
}

// RequiresRecompute reports whether the change can alter any count.
func (c TranslationChange) RequiresRecompute() bool {
	before := countable(c.Before)
	after := countable(c.After)
	switch {
	case !before && !after:
		return false
	case before != after:
		return true
	}
	return c.Before.TargetLocale != c.After.TargetLocale ||
		Classify(*c.Before) != Classify(*c.After) ||
		c.Before.WordCount != c.After.WordCount
}

func countable(facts *TranslationFacts) bool {
	return facts != nil && !facts.IsBase()
}

// StoredSnapshot is the persisted form of a snapshot.
type StoredSnapshot struct {
	Ref        ContainerRef
	Payload    []byte
	ComputedAt time.Time
}

// SnapshotRepository persists serialized snapshots alongside containers.
type SnapshotRepository interface {
	Get(ctx context.Context, ref ContainerRef) (StoredSnapshot, error)
	Put(ctx context.Context, snapshot StoredSnapshot) error
}

// NotFoundError represents a missing persisted snapshot.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// RecomputeError is returned when a snapshot could not be rebuilt. The
// previously installed snapshot stays in place.
type RecomputeError struct {
	Ref   ContainerRef
	Stage string
	Err   error
}

func (e *RecomputeError) Error() string {
	return fmt.Sprintf("stats: recompute %s failed during %s: %v", e.Ref, e.Stage, e.Err)
}

func (e *RecomputeError) Unwrap() []error {
	return []error{ErrRecomputeFailed, e.Err}
}
