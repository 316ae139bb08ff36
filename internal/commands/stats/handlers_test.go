package statscmd_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	statscmd "github.com/goliatone/go-l10n/internal/commands/stats"
	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/stats"
)

var (
	en = locales.MustParse("en")
	fr = locales.MustParse("fr")
	de = locales.MustParse("de")
)

type stubContainer struct {
	mu   sync.Mutex
	ref  stats.ContainerRef
	reqs locales.Requirements
	keys []stats.KeyFacts
}

func (c *stubContainer) Ref() stats.ContainerRef { return c.ref }

func (c *stubContainer) LocaleRequirements() locales.Requirements {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reqs
}

func (c *stubContainer) Keys(context.Context) ([]stats.KeyFacts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]stats.KeyFacts(nil), c.keys...), nil
}

type stubResolver struct {
	containers map[stats.ContainerRef]stats.Container
	calls      int
}

func (r *stubResolver) Container(_ context.Context, ref stats.ContainerRef) (stats.Container, error) {
	r.calls++
	container, ok := r.containers[ref]
	if !ok {
		return nil, &stats.NotFoundError{Resource: "container", Key: ref.String()}
	}
	return container, nil
}

func slot(v int) *int { return &v }

func newArticle() *stubContainer {
	approved := true
	return &stubContainer{
		ref:  stats.ContainerRef{Kind: stats.KindArticle, ID: uuid.New()},
		reqs: locales.MustRequirements(map[string]bool{"fr": true, "de": false}),
		keys: []stats.KeyFacts{
			{
				ID:            uuid.New(),
				Position:      slot(0),
				SectionActive: true,
				Translations: []stats.TranslationFacts{
					{TargetLocale: en, SourceLocale: en, HasCopy: true, WordCount: 2},
					{TargetLocale: fr, SourceLocale: en, Approval: stats.ApprovalFromFlag(&approved), HasCopy: true, WordCount: 2},
					{TargetLocale: de, SourceLocale: en, HasCopy: false, WordCount: 2},
				},
			},
		},
	}
}

func newHarness(containers ...*stubContainer) (*stats.Store, *stubResolver) {
	resolver := &stubResolver{containers: make(map[stats.ContainerRef]stats.Container)}
	for _, container := range containers {
		resolver.containers[container.ref] = container
	}
	return stats.NewStore(), resolver
}

func TestRecomputeStatsHandlerInstallsSnapshot(t *testing.T) {
	article := newArticle()
	store, resolver := newHarness(article)

	var envelope statscmd.ResultEnvelope
	handler := statscmd.NewRecomputeStatsHandler(store, resolver, nil, statscmd.FeatureGates{})
	err := handler.Execute(context.Background(), statscmd.RecomputeStatsCommand{
		Kind:           string(stats.KindArticle),
		ContainerID:    article.ref.ID,
		ResultCallback: func(result statscmd.ResultEnvelope) { envelope = result },
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if envelope.Snapshot == nil {
		t.Fatalf("expected result callback to receive a snapshot")
	}
	if envelope.Ref != article.ref {
		t.Fatalf("expected ref %v, got %v", article.ref, envelope.Ref)
	}
	if got := envelope.Snapshot.StringsTotal(); got != 1 {
		t.Fatalf("expected strings_total 1, got %d", got)
	}
	if got := envelope.Metadata["operation"]; got != "recompute" {
		t.Fatalf("expected recompute metadata, got %v", got)
	}

	installed, _, ok := store.Peek(article.ref)
	if !ok || !installed.Equal(envelope.Snapshot) {
		t.Fatalf("expected handler snapshot to be installed in the store")
	}
	if got := installed.LocaleTally(stats.StateApproved, fr).Translations; got != 1 {
		t.Fatalf("expected one approved fr translation, got %d", got)
	}
}

func TestRecomputeStatsHandlerRejectsInvalidMessages(t *testing.T) {
	store, resolver := newHarness()
	handler := statscmd.NewRecomputeStatsHandler(store, resolver, nil, statscmd.FeatureGates{})

	cases := map[string]statscmd.RecomputeStatsCommand{
		"missing kind": {ContainerID: uuid.New()},
		"unknown kind": {Kind: "branch", ContainerID: uuid.New()},
		"missing id":   {Kind: "commit"},
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := handler.Execute(context.Background(), msg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
	if resolver.calls != 0 {
		t.Fatalf("expected resolver to stay untouched, got %d calls", resolver.calls)
	}
}

func TestRecomputeStatsHandlerPropagatesResolverErrors(t *testing.T) {
	store, resolver := newHarness()
	handler := statscmd.NewRecomputeStatsHandler(store, resolver, nil, statscmd.FeatureGates{})

	err := handler.Execute(context.Background(), statscmd.RecomputeStatsCommand{
		Kind:        "commit",
		ContainerID: uuid.New(),
	})
	if !stats.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestHandlersRespectFeatureGate(t *testing.T) {
	article := newArticle()
	store, resolver := newHarness(article)
	gates := statscmd.FeatureGates{CommandsEnabled: func() bool { return false }}

	recompute := statscmd.NewRecomputeStatsHandler(store, resolver, nil, gates)
	err := recompute.Execute(context.Background(), statscmd.RecomputeStatsCommand{Kind: "article", ContainerID: article.ref.ID})
	if !errors.Is(err, statscmd.ErrCommandsDisabled) {
		t.Fatalf("expected ErrCommandsDisabled, got %v", err)
	}

	activeKeys := statscmd.NewActiveKeysChangedHandler(store, resolver, nil, gates)
	err = activeKeys.Execute(context.Background(), statscmd.ActiveKeysChangedCommand{Kind: "article", ContainerID: article.ref.ID})
	if !errors.Is(err, statscmd.ErrCommandsDisabled) {
		t.Fatalf("expected ErrCommandsDisabled, got %v", err)
	}
	if _, _, ok := store.Peek(article.ref); ok {
		t.Fatalf("expected no snapshot while commands are disabled")
	}
}

func TestActiveKeysChangedHandlerDropsRemovedKeys(t *testing.T) {
	article := newArticle()
	store, resolver := newHarness(article)
	ctx := context.Background()

	if _, err := store.Recompute(ctx, article); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	article.mu.Lock()
	article.keys[0].Position = nil
	article.mu.Unlock()

	handler := statscmd.NewActiveKeysChangedHandler(store, resolver, nil, statscmd.FeatureGates{})
	if err := handler.Execute(ctx, statscmd.ActiveKeysChangedCommand{Kind: "article", ContainerID: article.ref.ID}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	snapshot, _, ok := store.Peek(article.ref)
	if !ok {
		t.Fatalf("expected installed snapshot")
	}
	if got := snapshot.StringsTotal(); got != 0 {
		t.Fatalf("expected strings_total 0 after removal, got %d", got)
	}
}

func TestLocaleRequirementsChangedHandlerRecomputes(t *testing.T) {
	article := newArticle()
	store, resolver := newHarness(article)
	ctx := context.Background()

	if _, err := store.Recompute(ctx, article); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	before, err := store.Query(ctx, article)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if !before.Ready() {
		t.Fatalf("expected article ready while only fr is required")
	}

	article.mu.Lock()
	article.reqs = locales.MustRequirements(map[string]bool{"fr": true, "de": true})
	article.mu.Unlock()

	handler := statscmd.NewLocaleRequirementsChangedHandler(store, resolver, nil, statscmd.FeatureGates{})
	if err := handler.Execute(ctx, statscmd.LocaleRequirementsChangedCommand{Kind: "article", ContainerID: article.ref.ID}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	after, err := store.Query(ctx, article)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if after.Ready() {
		t.Fatalf("expected article not ready once de is required")
	}
}
