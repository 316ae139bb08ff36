package l10n

import "github.com/goliatone/go-l10n/internal/locales"

// Report is a serialisable summary of one container's statistics.
type Report struct {
	Kind         string         `json:"kind" yaml:"kind"`
	ID           string         `json:"id" yaml:"id"`
	StringsTotal int            `json:"strings_total" yaml:"strings_total"`
	Scope        []string       `json:"scope" yaml:"scope"`
	Done         ReportTally    `json:"done" yaml:"done"`
	Pending      ReportTally    `json:"pending" yaml:"pending"`
	New          ReportTally    `json:"new" yaml:"new"`
	Total        ReportTally    `json:"total" yaml:"total"`
	Progress     float64        `json:"progress" yaml:"progress"`
	Ready        bool           `json:"ready" yaml:"ready"`
	Locales      []ReportLocale `json:"locales" yaml:"locales"`
}

// ReportTally mirrors Tally with stable field names.
type ReportTally struct {
	Translations int `json:"translations" yaml:"translations"`
	Words        int `json:"words" yaml:"words"`
}

// ReportLocale is one per-locale row of a Report.
type ReportLocale struct {
	Locale   string      `json:"locale" yaml:"locale"`
	Required bool        `json:"required" yaml:"required"`
	Approved ReportTally `json:"approved" yaml:"approved"`
	Pending  ReportTally `json:"pending" yaml:"pending"`
	New      ReportTally `json:"new" yaml:"new"`
}

// BuildReport summarises query over scope. An empty scope means the
// container's required locales, whose totals come from the stored aggregates.
func BuildReport(ref ContainerRef, query Query, scope ...Locale) Report {
	resolved := query.Scope(scope...)
	report := Report{
		Kind:         string(ref.Kind),
		ID:           ref.ID.String(),
		StringsTotal: query.StringsTotal(),
		Scope:        codes(resolved),
		Done: ReportTally{
			Translations: query.TranslationsDone(scope...),
			Words:        query.WordsDone(scope...),
		},
		Pending: ReportTally{
			Translations: query.TranslationsPending(scope...),
			Words:        query.WordsPending(scope...),
		},
		New: ReportTally{
			Translations: query.TranslationsNew(scope...),
			Words:        query.WordsNew(scope...),
		},
		Total: ReportTally{
			Translations: query.TranslationsTotal(scope...),
			Words:        query.WordsTotal(scope...),
		},
		Progress: query.ProgressPercentage(scope...),
		Ready:    query.Ready(scope...),
		Locales:  make([]ReportLocale, 0, len(resolved)),
	}
	for _, row := range query.Breakdown(resolved...) {
		report.Locales = append(report.Locales, ReportLocale{
			Locale:   row.Locale.Code(),
			Required: row.Required,
			Approved: reportTally(row.Approved),
			Pending:  reportTally(row.Pending),
			New:      reportTally(row.New),
		})
	}
	return report
}

func reportTally(t Tally) ReportTally {
	return ReportTally{Translations: t.Translations, Words: t.Words}
}

func codes(list []locales.Locale) []string {
	out := make([]string, 0, len(list))
	for _, locale := range list {
		out = append(out, locale.Code())
	}
	return out
}
