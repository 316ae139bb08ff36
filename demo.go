package l10n

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DemoCatalog identifies the containers created by SeedDemo.
type DemoCatalog struct {
	Project *Project
	Article ContainerRef
	Commit  ContainerRef
}

// DemoLocales are the targeted locales of the demo project: fr and ja are
// required, de is optional.
func DemoLocales() map[string]bool {
	return map[string]bool{"fr": true, "de": false, "ja": true}
}

type demoTranslation struct {
	locale   string
	text     string
	approved *bool
}

// SeedDemo creates a project holding one article and one commit that share
// the same translation state: a two word key approved in fr and de and
// pending in ja, plus a one word key approved in fr, rejected in de and
// untranslated in ja. The article also carries a key outside the ordering
// and a key in an inactive section, neither of which is counted.
func SeedDemo(ctx context.Context, svc CatalogService) (*DemoCatalog, error) {
	project, err := svc.CreateProject(ctx, CreateProjectInput{
		Name:            "demo",
		BaseLocale:      "en",
		TargetedLocales: DemoLocales(),
	})
	if err != nil {
		return nil, err
	}

	article, err := svc.CreateArticle(ctx, CreateArticleInput{
		ProjectID:       project.ID,
		Name:            "getting-started",
		TargetedLocales: DemoLocales(),
	})
	if err != nil {
		return nil, err
	}
	intro, err := svc.AddSection(ctx, AddSectionInput{ArticleID: article.ID, Name: "intro"})
	if err != nil {
		return nil, err
	}
	inactive := false
	hidden, err := svc.AddSection(ctx, AddSectionInput{ArticleID: article.ID, Name: "hidden", Active: &inactive})
	if err != nil {
		return nil, err
	}

	zero, one, two := 0, 1, 2
	greeting, err := svc.AddKey(ctx, AddKeyInput{SectionID: &intro.ID, Name: "greeting", SourceCopy: "hello world", Index: &zero})
	if err != nil {
		return nil, err
	}
	farewell, err := svc.AddKey(ctx, AddKeyInput{SectionID: &intro.ID, Name: "farewell", SourceCopy: "bye", Index: &one})
	if err != nil {
		return nil, err
	}
	dropped, err := svc.AddKey(ctx, AddKeyInput{SectionID: &intro.ID, Name: "dropped", SourceCopy: "no longer shown"})
	if err != nil {
		return nil, err
	}
	secret, err := svc.AddKey(ctx, AddKeyInput{SectionID: &hidden.ID, Name: "secret", SourceCopy: "hidden words here", Index: &two})
	if err != nil {
		return nil, err
	}

	yes, no := true, false
	if err := applyDemo(ctx, svc, greeting, demoWordsPair(&yes)...); err != nil {
		return nil, err
	}
	if err := applyDemo(ctx, svc, farewell, demoSingleWord(&yes, &no)...); err != nil {
		return nil, err
	}
	if err := applyDemo(ctx, svc, dropped, demoTranslation{locale: "ja", text: "mou nai", approved: &yes}); err != nil {
		return nil, err
	}
	if err := applyDemo(ctx, svc, secret, demoTranslation{locale: "fr", text: "mots caches ici", approved: &yes}); err != nil {
		return nil, err
	}

	commit, err := svc.CreateCommit(ctx, CreateCommitInput{ProjectID: project.ID, Revision: "demo-1"})
	if err != nil {
		return nil, err
	}
	appGreeting, err := svc.AddKey(ctx, AddKeyInput{ProjectID: project.ID, Name: "app.greeting", SourceCopy: "hello world"})
	if err != nil {
		return nil, err
	}
	appFarewell, err := svc.AddKey(ctx, AddKeyInput{ProjectID: project.ID, Name: "app.farewell", SourceCopy: "bye"})
	if err != nil {
		return nil, err
	}
	if err := svc.SetCommitKeys(ctx, commit.ID, []uuid.UUID{appGreeting.ID, appFarewell.ID}); err != nil {
		return nil, err
	}
	if err := applyDemo(ctx, svc, appGreeting, demoWordsPair(&yes)...); err != nil {
		return nil, err
	}
	if err := applyDemo(ctx, svc, appFarewell, demoSingleWord(&yes, &no)...); err != nil {
		return nil, err
	}

	return &DemoCatalog{
		Project: project,
		Article: ContainerRef{Kind: KindArticle, ID: article.ID},
		Commit:  ContainerRef{Kind: KindCommit, ID: commit.ID},
	}, nil
}

func demoWordsPair(approved *bool) []demoTranslation {
	return []demoTranslation{
		{locale: "fr", text: "bonjour monde", approved: approved},
		{locale: "de", text: "hallo welt", approved: approved},
		{locale: "ja", text: "konnichiwa"},
	}
}

func demoSingleWord(approved, rejected *bool) []demoTranslation {
	return []demoTranslation{
		{locale: "fr", text: "adieu", approved: approved},
		{locale: "de", text: "tschuss", approved: rejected},
	}
}

func applyDemo(ctx context.Context, svc CatalogService, key *Key, translations ...demoTranslation) error {
	for _, tr := range translations {
		text := tr.text
		if _, err := svc.UpsertTranslation(ctx, UpsertTranslationInput{KeyID: key.ID, Locale: tr.locale, Copy: &text}); err != nil {
			return fmt.Errorf("demo: translate %s/%s: %w", key.Name, tr.locale, err)
		}
		if tr.approved == nil {
			continue
		}
		if _, err := svc.ReviewTranslation(ctx, ReviewTranslationInput{KeyID: key.ID, Locale: tr.locale, Approved: *tr.approved}); err != nil {
			return fmt.Errorf("demo: review %s/%s: %w", key.Name, tr.locale, err)
		}
	}
	return nil
}
