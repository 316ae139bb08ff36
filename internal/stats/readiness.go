package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-l10n/internal/locales"
)

// Readiness selects containers by whether their required locales are done.
type Readiness string

const (
	ReadinessAll         Readiness = "all"
	ReadinessCompleted   Readiness = "completed"
	ReadinessUncompleted Readiness = "uncompleted"
)

// ParseReadiness accepts completed, uncompleted or all. Empty means all.
func ParseReadiness(value string) (Readiness, error) {
	switch Readiness(strings.ToLower(strings.TrimSpace(value))) {
	case "", ReadinessAll:
		return ReadinessAll, nil
	case ReadinessCompleted:
		return ReadinessCompleted, nil
	case ReadinessUncompleted:
		return ReadinessUncompleted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrReadinessUnknown, value)
	}
}

// Matches reports whether the query passes the filter over scope.
func (r Readiness) Matches(q Query, scope ...locales.Locale) bool {
	switch r {
	case ReadinessCompleted:
		return q.Ready(scope...)
	case ReadinessUncompleted:
		return !q.Ready(scope...)
	default:
		return true
	}
}

// ContainerQuery pairs a container with the query over its snapshot.
type ContainerQuery struct {
	Ref   ContainerRef
	Query Query
}

// Filter queries each container and keeps those matching readiness, in input
// order. Snapshots missing from the cache are loaded or computed.
func (s *Store) Filter(ctx context.Context, containers []Container, readiness Readiness, scope ...locales.Locale) ([]ContainerQuery, error) {
	out := make([]ContainerQuery, 0, len(containers))
	for _, container := range containers {
		query, err := s.Query(ctx, container)
		if err != nil {
			return nil, err
		}
		if !readiness.Matches(query, scope...) {
			continue
		}
		out = append(out, ContainerQuery{Ref: container.Ref(), Query: query})
	}
	return out, nil
}
