package stats_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/stats"
)

var (
	en = locales.MustParse("en")
	fr = locales.MustParse("fr")
	de = locales.MustParse("de")
	ja = locales.MustParse("ja")
	xx = locales.MustParse("xx")
	tr = locales.MustParse("tr")
)

type fakeContainer struct {
	mu    sync.Mutex
	ref   stats.ContainerRef
	reqs  locales.Requirements
	keys  []stats.KeyFacts
	err   error
	loads int
}

func newFakeContainer(kind stats.ContainerKind, reqs locales.Requirements, keys []stats.KeyFacts) *fakeContainer {
	return &fakeContainer{
		ref:  stats.ContainerRef{Kind: kind, ID: uuid.New()},
		reqs: reqs,
		keys: keys,
	}
}

func (c *fakeContainer) Ref() stats.ContainerRef { return c.ref }

func (c *fakeContainer) LocaleRequirements() locales.Requirements {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reqs
}

func (c *fakeContainer) Keys(context.Context) ([]stats.KeyFacts, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	if c.err != nil {
		return nil, c.err
	}
	return append([]stats.KeyFacts(nil), c.keys...), nil
}

func (c *fakeContainer) set(keys []stats.KeyFacts, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = keys
	c.err = err
}

func position(v int) *int { return &v }

func translation(target locales.Locale, approval stats.Approval, hasCopy bool, words int) stats.TranslationFacts {
	return stats.TranslationFacts{
		TargetLocale: target,
		SourceLocale: en,
		Approval:     approval,
		HasCopy:      hasCopy,
		WordCount:    words,
	}
}

func base(words int) stats.TranslationFacts {
	return stats.TranslationFacts{TargetLocale: en, SourceLocale: en, HasCopy: true, WordCount: words}
}

func scenarioRequirements() locales.Requirements {
	return locales.MustRequirements(map[string]bool{"fr": true, "de": false, "ja": true})
}

func scenarioRequirementsWithGerman() locales.Requirements {
	return locales.MustRequirements(map[string]bool{"fr": true, "de": true, "ja": true})
}

// scenarioKeys returns two active keys: "hello world" (2 words) and
// "whatsup" (1 word).
func scenarioKeys() []stats.KeyFacts {
	return []stats.KeyFacts{
		{
			ID:            uuid.MustParse("00000000-0000-0000-0000-0000000000a1"),
			Position:      position(0),
			SectionActive: true,
			Translations: []stats.TranslationFacts{
				base(2),
				translation(fr, stats.ApprovalApproved, true, 2),
				translation(de, stats.ApprovalApproved, true, 2),
				translation(ja, stats.ApprovalUnreviewed, true, 2),
			},
		},
		{
			ID:            uuid.MustParse("00000000-0000-0000-0000-0000000000a2"),
			Position:      position(1),
			SectionActive: true,
			Translations: []stats.TranslationFacts{
				base(1),
				translation(fr, stats.ApprovalApproved, true, 1),
				translation(de, stats.ApprovalRejected, true, 1),
				translation(ja, stats.ApprovalUnreviewed, false, 1),
			},
		},
	}
}
