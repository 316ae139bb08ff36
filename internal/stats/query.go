package stats

import (
	"slices"

	"github.com/goliatone/go-l10n/internal/locales"
)

// Query answers scoped questions about one snapshot. Every accessor takes an
// optional locale list. With none, the state aggregates stored in the snapshot
// are read through FetchStat; they were summed over the required locales when
// the snapshot was built. Otherwise exactly the given locales (duplicates
// collapsed) are summed, even when they are optional or not targeted at all.
type Query struct {
	snapshot     *Snapshot
	requirements locales.Requirements
	required     []locales.Locale
}

// NewQuery binds a snapshot to the requirements that define its default scope.
func NewQuery(snapshot *Snapshot, requirements locales.Requirements) Query {
	return newQuery(snapshot, requirements, requirements.Required())
}

func newQuery(snapshot *Snapshot, requirements locales.Requirements, required []locales.Locale) Query {
	if snapshot == nil {
		snapshot = Empty()
	}
	return Query{snapshot: snapshot, requirements: requirements, required: required}
}

// Snapshot returns the underlying snapshot.
func (q Query) Snapshot() *Snapshot {
	return q.snapshot
}

// Scope resolves the locale list an accessor sums over.
func (q Query) Scope(scope ...locales.Locale) []locales.Locale {
	if len(scope) == 0 {
		return slices.Clone(q.required)
	}
	return locales.Unique(scope)
}

func (q Query) sum(state State, scope []locales.Locale) Tally {
	if len(scope) == 0 {
		return Tally{
			Translations: q.snapshot.FetchStat(state, FieldTranslationsCount, 0),
			Words:        q.snapshot.FetchStat(state, FieldWordsCount, 0),
		}
	}
	return q.snapshot.Sum(state, locales.Unique(scope))
}

func (q Query) TranslationsDone(scope ...locales.Locale) int {
	return q.sum(StateApproved, scope).Translations
}

func (q Query) TranslationsPending(scope ...locales.Locale) int {
	return q.sum(StatePending, scope).Translations
}

func (q Query) TranslationsNew(scope ...locales.Locale) int {
	return q.sum(StateNew, scope).Translations
}

// TranslationsNotDone is pending plus new.
func (q Query) TranslationsNotDone(scope ...locales.Locale) int {
	return q.sum(StatePending, scope).Translations + q.sum(StateNew, scope).Translations
}

// TranslationsTotal is done plus pending plus new.
func (q Query) TranslationsTotal(scope ...locales.Locale) int {
	return q.total(scope).Translations
}

func (q Query) WordsDone(scope ...locales.Locale) int {
	return q.sum(StateApproved, scope).Words
}

func (q Query) WordsPending(scope ...locales.Locale) int {
	return q.sum(StatePending, scope).Words
}

func (q Query) WordsNew(scope ...locales.Locale) int {
	return q.sum(StateNew, scope).Words
}

func (q Query) WordsTotal(scope ...locales.Locale) int {
	return q.total(scope).Words
}

// StringsTotal is the number of active keys; it does not depend on scope.
func (q Query) StringsTotal() int {
	return q.snapshot.StringsTotal()
}

// ProgressPercentage is the approved share of all translations in scope, in
// the range [0, 100]. An empty scope reports 0.
func (q Query) ProgressPercentage(scope ...locales.Locale) float64 {
	total := q.total(scope).Translations
	if total == 0 {
		return 0
	}
	done := q.sum(StateApproved, scope).Translations
	return float64(done) * 100 / float64(total)
}

// Ready reports whether nothing in scope is left to translate or review.
func (q Query) Ready(scope ...locales.Locale) bool {
	return q.TranslationsNotDone(scope...) == 0
}

// LocaleBreakdown is one reporting row.
type LocaleBreakdown struct {
	Locale   locales.Locale
	Required bool
	Approved Tally
	Pending  Tally
	New      Tally
}

// Total sums the three states.
func (b LocaleBreakdown) Total() Tally {
	return b.Approved.Add(b.Pending).Add(b.New)
}

// Breakdown returns one row per locale in scope, in scope order.
func (q Query) Breakdown(scope ...locales.Locale) []LocaleBreakdown {
	resolved := q.Scope(scope...)
	rows := make([]LocaleBreakdown, 0, len(resolved))
	for _, locale := range resolved {
		if locale.IsZero() {
			continue
		}
		rows = append(rows, LocaleBreakdown{
			Locale:   locale,
			Required: q.requirements.IsRequired(locale),
			Approved: q.snapshot.LocaleTally(StateApproved, locale),
			Pending:  q.snapshot.LocaleTally(StatePending, locale),
			New:      q.snapshot.LocaleTally(StateNew, locale),
		})
	}
	return rows
}

func (q Query) total(scope []locales.Locale) Tally {
	var total Tally
	for _, state := range States {
		total = total.Add(q.sum(state, scope))
	}
	return total
}
