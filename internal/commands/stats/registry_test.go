package statscmd_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-l10n/internal/commands"
	"github.com/goliatone/go-l10n/internal/commands/fixtures"
	statscmd "github.com/goliatone/go-l10n/internal/commands/stats"
	"github.com/goliatone/go-l10n/internal/stats"
)

func TestRegisterStatsCommandsRegistersHandlers(t *testing.T) {
	store, resolver := newHarness()
	reg := fixtures.NewRecordingRegistry()

	set, err := statscmd.RegisterStatsCommands(reg, store, resolver, nil, statscmd.FeatureGates{},
		statscmd.WithRecomputeHandlerOptions(commands.WithTimeout[statscmd.RecomputeStatsCommand](time.Second)),
	)
	if err != nil {
		t.Fatalf("RegisterStatsCommands() error = %v", err)
	}
	if set.Recompute == nil || set.ActiveKeysChanged == nil || set.LocaleRequirementsChanged == nil {
		t.Fatalf("expected every handler to be constructed, got %+v", set)
	}
	if len(reg.Handlers) != 3 {
		t.Fatalf("expected 3 registered handlers, got %d", len(reg.Handlers))
	}
	if _, ok := reg.Handlers[0].(*statscmd.RecomputeStatsHandler); !ok {
		t.Fatalf("expected recompute handler first, got %T", reg.Handlers[0])
	}
}

func TestRegisterStatsCommandsPropagatesRegistryError(t *testing.T) {
	store, resolver := newHarness()
	reg := fixtures.NewRecordingRegistry()
	reg.Err = errors.New("registry closed")

	if _, err := statscmd.RegisterStatsCommands(reg, store, resolver, nil, statscmd.FeatureGates{}); !errors.Is(err, reg.Err) {
		t.Fatalf("expected registry error, got %v", err)
	}
}

func TestRegisterStatsCommandsRequiresDependencies(t *testing.T) {
	store, resolver := newHarness()
	if _, err := statscmd.RegisterStatsCommands(nil, nil, resolver, nil, statscmd.FeatureGates{}); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := statscmd.RegisterStatsCommands(nil, store, nil, nil, statscmd.FeatureGates{}); err == nil {
		t.Fatalf("expected error for nil resolver")
	}
}

func TestHandlerSetSubscribeDispatchesRecompute(t *testing.T) {
	article := newArticle()
	store, resolver := newHarness(article)

	set, err := statscmd.RegisterStatsCommands(nil, store, resolver, nil, statscmd.FeatureGates{})
	if err != nil {
		t.Fatalf("RegisterStatsCommands() error = %v", err)
	}
	subs := set.Subscribe(runner.WithMaxRetries(0))
	t.Cleanup(func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	})
	if len(subs) != 3 {
		t.Fatalf("expected 3 subscriptions, got %d", len(subs))
	}

	if err := dispatcher.Dispatch(context.Background(), statscmd.RecomputeStatsCommand{
		Kind:        string(stats.KindArticle),
		ContainerID: article.ref.ID,
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	snapshot, _, ok := store.Peek(article.ref)
	if !ok {
		t.Fatalf("expected dispatched recompute to install a snapshot")
	}
	if got := snapshot.StringsTotal(); got != 1 {
		t.Fatalf("expected strings_total 1, got %d", got)
	}
}
