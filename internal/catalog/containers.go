package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/stats"
)

// ArticleContainer exposes an article to the stats engine.
type ArticleContainer struct {
	repo         Repository
	article      *Article
	requirements locales.Requirements
}

var _ stats.Container = (*ArticleContainer)(nil)

// NewArticleContainer wraps an article. Locale codes that cannot be parsed
// are dropped from the requirements.
func NewArticleContainer(repo Repository, article *Article) *ArticleContainer {
	return &ArticleContainer{
		repo:         repo,
		article:      cloneArticle(article),
		requirements: requirementsFrom(article.TargetedLocales),
	}
}

func (c *ArticleContainer) Ref() stats.ContainerRef {
	return stats.ContainerRef{Kind: stats.KindArticle, ID: c.article.ID}
}

func (c *ArticleContainer) LocaleRequirements() locales.Requirements {
	return c.requirements
}

// Article returns the wrapped record.
func (c *ArticleContainer) Article() *Article {
	return cloneArticle(c.article)
}

// Keys returns every key of every section. Translations are only loaded for
// keys that are active.
func (c *ArticleContainer) Keys(ctx context.Context) ([]stats.KeyFacts, error) {
	sections, err := c.repo.ListSections(ctx, c.article.ID)
	if err != nil {
		return nil, err
	}
	active := make(map[uuid.UUID]bool, len(sections))
	ids := make([]uuid.UUID, 0, len(sections))
	for _, section := range sections {
		active[section.ID] = section.Active
		ids = append(ids, section.ID)
	}

	keys, err := c.repo.ListSectionKeys(ctx, ids)
	if err != nil {
		return nil, err
	}
	facts := make([]stats.KeyFacts, 0, len(keys))
	var load []uuid.UUID
	for _, key := range keys {
		fact := stats.KeyFacts{
			ID:            key.ID,
			Position:      cloneInt(key.IndexInSection),
			SectionActive: key.SectionID != nil && active[*key.SectionID],
		}
		if fact.IsActive() {
			load = append(load, key.ID)
		}
		facts = append(facts, fact)
	}
	return attachTranslations(ctx, c.repo, facts, load)
}

// CommitContainer exposes a commit to the stats engine. Its locale
// requirements come from the owning project.
type CommitContainer struct {
	repo         Repository
	commit       *Commit
	requirements locales.Requirements
}

var _ stats.Container = (*CommitContainer)(nil)

// NewCommitContainer wraps a commit of project.
func NewCommitContainer(repo Repository, commit *Commit, project *Project) *CommitContainer {
	var targeted map[string]bool
	if project != nil {
		targeted = project.TargetedLocales
	}
	return &CommitContainer{
		repo:         repo,
		commit:       cloneCommit(commit),
		requirements: requirementsFrom(targeted),
	}
}

func (c *CommitContainer) Ref() stats.ContainerRef {
	return stats.ContainerRef{Kind: stats.KindCommit, ID: c.commit.ID}
}

func (c *CommitContainer) LocaleRequirements() locales.Requirements {
	return c.requirements
}

// Commit returns the wrapped record.
func (c *CommitContainer) Commit() *Commit {
	return cloneCommit(c.commit)
}

// Keys returns the keys linked to the commit. Linked keys always have a
// position and no section.
func (c *CommitContainer) Keys(ctx context.Context) ([]stats.KeyFacts, error) {
	links, err := c.repo.ListCommitKeys(ctx, c.commit.ID)
	if err != nil {
		return nil, err
	}
	facts := make([]stats.KeyFacts, 0, len(links))
	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		position := link.Position
		facts = append(facts, stats.KeyFacts{
			ID:            link.KeyID,
			Position:      &position,
			SectionActive: true,
		})
		ids = append(ids, link.KeyID)
	}
	return attachTranslations(ctx, c.repo, facts, ids)
}

func attachTranslations(ctx context.Context, repo Repository, facts []stats.KeyFacts, keyIDs []uuid.UUID) ([]stats.KeyFacts, error) {
	if len(keyIDs) == 0 {
		return facts, nil
	}
	translations, err := repo.ListTranslations(ctx, keyIDs)
	if err != nil {
		return nil, err
	}
	byKey := make(map[uuid.UUID][]stats.TranslationFacts, len(keyIDs))
	for _, translation := range translations {
		byKey[translation.KeyID] = append(byKey[translation.KeyID], TranslationFacts(translation))
	}
	for i := range facts {
		facts[i].Translations = byKey[facts[i].ID]
	}
	return facts, nil
}

// TranslationFacts projects a translation row onto the fields statistics
// read. An unparseable locale yields the zero locale, which is not counted.
func TranslationFacts(translation *Translation) stats.TranslationFacts {
	target, _ := locales.Parse(translation.Locale)
	source, _ := locales.Parse(translation.SourceLocale)
	return stats.TranslationFacts{
		TargetLocale: target,
		SourceLocale: source,
		Approval:     stats.ApprovalFromFlag(translation.Approved),
		HasCopy:      translation.Copy != nil,
		WordCount:    translation.WordsCount,
	}
}

func requirementsFrom(targeted map[string]bool) locales.Requirements {
	clean := make(map[string]bool, len(targeted))
	for code, required := range targeted {
		if _, err := locales.Parse(code); err != nil {
			continue
		}
		clean[code] = required
	}
	reqs, err := locales.NewRequirements(clean)
	if err != nil {
		return locales.Requirements{}
	}
	return reqs
}

// CountWords returns the number of whitespace separated words in source.
func CountWords(source string) int {
	return len(strings.Fields(source))
}
