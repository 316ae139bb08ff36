package stats_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/stats"
)

func TestCountScenarioAggregates(t *testing.T) {
	snapshot := stats.Count(scenarioKeys(), scenarioRequirements())

	expect := map[stats.State]stats.Tally{
		stats.StateApproved: {Translations: 2, Words: 3},
		stats.StatePending:  {Translations: 1, Words: 2},
		stats.StateNew:      {Translations: 1, Words: 1},
	}
	for state, want := range expect {
		if got := snapshot.Total(state); got != want {
			t.Fatalf("%s: expected %+v, got %+v", state, want, got)
		}
	}
	if snapshot.StringsTotal() != 2 {
		t.Fatalf("expected 2 strings, got %d", snapshot.StringsTotal())
	}
	if got := snapshot.LocaleTally(stats.StateApproved, de); got != (stats.Tally{Translations: 1, Words: 2}) {
		t.Fatalf("optional locale buckets must still be kept, got %+v", got)
	}
}

func TestCountExcludesBaseTranslations(t *testing.T) {
	keys := []stats.KeyFacts{{
		ID:            uuid.New(),
		Position:      position(0),
		SectionActive: true,
		Translations:  []stats.TranslationFacts{base(4)},
	}}
	snapshot := stats.Count(keys, scenarioRequirements())

	for _, state := range stats.States {
		if snapshot.HasState(state) {
			t.Fatalf("base text must not populate %s", state)
		}
	}
	if snapshot.LocaleTally(stats.StatePending, en) != (stats.Tally{}) {
		t.Fatal("base locale must not be counted")
	}
	if snapshot.StringsTotal() != 1 {
		t.Fatalf("key is still active, expected 1 string, got %d", snapshot.StringsTotal())
	}
}

func TestCountExcludesInactiveKeys(t *testing.T) {
	keys := scenarioKeys()
	keys[0].Position = nil
	keys[1].SectionActive = false

	snapshot := stats.Count(keys, scenarioRequirements())
	if snapshot.StringsTotal() != 0 {
		t.Fatalf("expected 0 strings, got %d", snapshot.StringsTotal())
	}
	if got := snapshot.LocaleCodes(); len(got) != 0 {
		t.Fatalf("expected no locale buckets, got %v", got)
	}
}

func TestCountIgnoresDuplicateKeys(t *testing.T) {
	keys := scenarioKeys()
	keys = append(keys, keys[1])

	snapshot := stats.Count(keys, scenarioRequirements())
	if snapshot.StringsTotal() != 2 {
		t.Fatalf("expected 2 strings, got %d", snapshot.StringsTotal())
	}
	if got := snapshot.Total(stats.StateApproved); got.Translations != 2 {
		t.Fatalf("duplicate key double counted: %+v", got)
	}
}

func TestCountKeyWithoutTranslationsContributesZero(t *testing.T) {
	keys := []stats.KeyFacts{{ID: uuid.New(), Position: position(3), SectionActive: true}}
	snapshot := stats.Count(keys, locales.Requirements{})
	if snapshot.StringsTotal() != 1 || snapshot.HasState(stats.StateNew) {
		t.Fatalf("unexpected snapshot %+v", snapshot.Document())
	}
}

func TestCountIsOrderIndependent(t *testing.T) {
	keys := scenarioKeys()
	reversed := []stats.KeyFacts{keys[1], keys[0]}
	for i, j := 0, len(reversed[0].Translations)-1; i < j; i, j = i+1, j-1 {
		reversed[0].Translations[i], reversed[0].Translations[j] = reversed[0].Translations[j], reversed[0].Translations[i]
	}

	left, _ := stats.Count(scenarioKeys(), scenarioRequirements()).Serialize()
	right, _ := stats.Count(reversed, scenarioRequirements()).Serialize()
	if string(left) != string(right) {
		t.Fatalf("expected identical payloads\n%s\n%s", left, right)
	}
}

func TestComputeWrapsFetchFailures(t *testing.T) {
	boom := errors.New("database unavailable")
	container := newFakeContainer(stats.KindCommit, scenarioRequirements(), nil)
	container.set(nil, boom)

	_, err := stats.Compute(context.Background(), container)
	if !errors.Is(err, stats.ErrRecomputeFailed) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped recompute failure, got %v", err)
	}
	var recomputeErr *stats.RecomputeError
	if !errors.As(err, &recomputeErr) || recomputeErr.Stage != "load_keys" {
		t.Fatalf("expected load_keys stage, got %v", err)
	}
}

func TestComputeRejectsMissingContainer(t *testing.T) {
	if _, err := stats.Compute(context.Background(), nil); !errors.Is(err, stats.ErrContainerRequired) {
		t.Fatalf("expected ErrContainerRequired, got %v", err)
	}
}
