package stats_test

import (
	"testing"

	"github.com/goliatone/go-l10n/internal/locales"
	"github.com/goliatone/go-l10n/internal/stats"
)

func scenarioQuery() stats.Query {
	return stats.NewQuery(stats.Count(scenarioKeys(), scenarioRequirements()), scenarioRequirements())
}

func TestQueryScenario(t *testing.T) {
	q := scenarioQuery()

	checks := []struct {
		name string
		got  int
		want int
	}{
		{"done", q.TranslationsDone(), 2},
		{"pending", q.TranslationsPending(), 1},
		{"new", q.TranslationsNew(), 1},
		{"words done", q.WordsDone(), 3},
		{"words pending", q.WordsPending(), 2},
		{"words new", q.WordsNew(), 1},
		{"not done", q.TranslationsNotDone(), 2},
		{"total", q.TranslationsTotal(), 4},
		{"done fr", q.TranslationsDone(fr), 2},
		{"pending ja de", q.TranslationsPending(ja, de), 2},
		{"new ja", q.TranslationsNew(ja), 1},
		{"not done ja fr de", q.TranslationsNotDone(ja, fr, de), 3},
		{"total with untargeted", q.TranslationsTotal(fr, de, ja, xx), 6},
		{"total untargeted only", q.TranslationsTotal(tr), 0},
		{"words pending all", q.WordsPending(fr, de, ja), 3},
		{"words new all", q.WordsNew(fr, de, ja), 1},
		{"strings", q.StringsTotal(), 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}
}

func TestQueryDefaultScopeExcludesOptionalLocales(t *testing.T) {
	q := scenarioQuery()

	if got := q.TranslationsTotal(); got != q.TranslationsTotal(fr, ja) {
		t.Fatalf("default scope should equal required locales, got %d", got)
	}
	if got := q.TranslationsDone(de); got != 1 {
		t.Fatalf("explicit optional locale should report its counts, got %d", got)
	}
	if got := q.TranslationsPending(de); got != 1 {
		t.Fatalf("explicit optional locale should report its counts, got %d", got)
	}
	scope := q.Scope()
	if len(scope) != 2 || scope[0] != fr || scope[1] != ja {
		t.Fatalf("unexpected default scope %v", locales.Codes(scope))
	}
}

func TestQueryRepeatedLocaleCountsOnce(t *testing.T) {
	q := scenarioQuery()
	if got := q.TranslationsDone(fr, fr, fr); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestQuerySumConsistency(t *testing.T) {
	q := scenarioQuery()
	scopes := [][]locales.Locale{
		nil,
		{fr},
		{de},
		{ja},
		{fr, de},
		{de, ja, xx},
		{fr, de, ja},
		{tr},
	}
	for _, scope := range scopes {
		total := q.TranslationsTotal(scope...)
		parts := q.TranslationsDone(scope...) + q.TranslationsPending(scope...) + q.TranslationsNew(scope...)
		if total != parts {
			t.Fatalf("scope %v: total %d != parts %d", locales.Codes(scope), total, parts)
		}
		if q.TranslationsNotDone(scope...) != q.TranslationsPending(scope...)+q.TranslationsNew(scope...) {
			t.Fatalf("scope %v: not done mismatch", locales.Codes(scope))
		}
		words := q.WordsDone(scope...) + q.WordsPending(scope...) + q.WordsNew(scope...)
		if q.WordsTotal(scope...) != words {
			t.Fatalf("scope %v: words total mismatch", locales.Codes(scope))
		}
	}
}

func TestQueryProgressAndReadiness(t *testing.T) {
	q := scenarioQuery()

	if got := q.ProgressPercentage(); got != 50 {
		t.Fatalf("expected 50%%, got %v", got)
	}
	if got := q.ProgressPercentage(fr); got != 100 {
		t.Fatalf("expected 100%% for fr, got %v", got)
	}
	if !q.Ready(fr) {
		t.Fatal("fr is fully approved")
	}
	if q.Ready() {
		t.Fatal("ja still has work")
	}
	if got := q.ProgressPercentage(tr); got != 0 {
		t.Fatalf("empty scope should report 0, got %v", got)
	}
}

func TestQueryOverEmptySnapshot(t *testing.T) {
	q := stats.NewQuery(nil, scenarioRequirements())
	if q.TranslationsTotal() != 0 || q.WordsNew(fr) != 0 || q.StringsTotal() != 0 {
		t.Fatal("empty snapshot must read as zero")
	}
	if !q.Ready() {
		t.Fatal("nothing to do means ready")
	}
}

func TestQueryBreakdown(t *testing.T) {
	q := scenarioQuery()

	rows := q.Breakdown(fr, de, ja)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1].Locale != de || rows[1].Required {
		t.Fatalf("expected optional de row, got %+v", rows[1])
	}
	if rows[1].Approved.Translations != 1 || rows[1].Pending.Words != 1 {
		t.Fatalf("unexpected de row %+v", rows[1])
	}
	if total := rows[2].Total(); total != (stats.Tally{Translations: 2, Words: 3}) {
		t.Fatalf("unexpected ja total %+v", total)
	}

	defaults := q.Breakdown()
	if len(defaults) != 2 || !defaults[0].Required || !defaults[1].Required {
		t.Fatalf("default breakdown should list required locales, got %+v", defaults)
	}
}

func TestQueryDefaultScopeReadsStoredAggregates(t *testing.T) {
	snapshot := stats.Count(scenarioKeys(), scenarioRequirements())
	// Requirements moved on without a recompute: de became required.
	q := stats.NewQuery(snapshot, scenarioRequirementsWithGerman())

	for _, state := range stats.States {
		want := snapshot.FetchStat(state, stats.FieldTranslationsCount, 0)
		var got int
		switch state {
		case stats.StateApproved:
			got = q.TranslationsDone()
		case stats.StatePending:
			got = q.TranslationsPending()
		case stats.StateNew:
			got = q.TranslationsNew()
		}
		if got != want {
			t.Fatalf("%s: expected stored aggregate %d, got %d", state, want, got)
		}
	}
	if got, want := q.WordsPending(), snapshot.FetchStat(stats.StatePending, stats.FieldWordsCount, 0); got != want {
		t.Fatalf("words pending: expected %d, got %d", want, got)
	}
	if q.TranslationsTotal() != 4 {
		t.Fatalf("expected total of the stored aggregates, got %d", q.TranslationsTotal())
	}
	if got := q.TranslationsTotal(fr, de, ja); got != 6 {
		t.Fatalf("explicit scope sums per-locale buckets, got %d", got)
	}
}
