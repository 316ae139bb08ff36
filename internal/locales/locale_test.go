package locales

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCanonicalisesCodes(t *testing.T) {
	cases := map[string]string{
		"fr":         "fr",
		" fr-ca ":    "fr-CA",
		"EN_us":      "en-US",
		"zh-hant-tw": "zh-Hant-TW",
		"XX":         "xx",
	}
	for input, want := range cases {
		got, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		if got.Code() != want {
			t.Fatalf("Parse(%q) = %q, want %q", input, got.Code(), want)
		}
	}
}

func TestParseRejectsEmptyAndMalformed(t *testing.T) {
	if _, err := Parse("  "); !errors.Is(err, ErrLocaleCodeRequired) {
		t.Fatalf("expected ErrLocaleCodeRequired, got %v", err)
	}
	if _, err := Parse("not a locale!"); !errors.Is(err, ErrInvalidLocale) {
		t.Fatalf("expected ErrInvalidLocale, got %v", err)
	}
}

func TestLocaleEqualityByIdentifier(t *testing.T) {
	a := MustParse("ja")
	b := MustParse(" JA ")
	if a != b || !a.Equal(b) {
		t.Fatalf("expected %v and %v to be equal", a, b)
	}
	if (Locale{}).IsZero() != true {
		t.Fatal("expected zero locale")
	}
}

func TestUniqueKeepsFirstOccurrence(t *testing.T) {
	list := []Locale{MustParse("ja"), MustParse("fr"), MustParse("ja"), {}, MustParse("de")}
	got := Codes(Unique(list))
	want := []string{"ja", "fr", "de"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Unique() = %v, want %v", got, want)
	}
}

func TestRequirementsSplitRequiredAndOptional(t *testing.T) {
	reqs := MustRequirements(map[string]bool{"fr": true, "de": false, "ja": true})

	if got := Codes(reqs.Required()); !reflect.DeepEqual(got, []string{"fr", "ja"}) {
		t.Fatalf("Required() = %v", got)
	}
	if got := Codes(reqs.Optional()); !reflect.DeepEqual(got, []string{"de"}) {
		t.Fatalf("Optional() = %v", got)
	}
	if got := Codes(reqs.Targeted()); !reflect.DeepEqual(got, []string{"de", "fr", "ja"}) {
		t.Fatalf("Targeted() = %v", got)
	}
	if reqs.IsTargeted(MustParse("tr")) {
		t.Fatal("tr should not be targeted")
	}
	if !reqs.IsTargeted(MustParse("de")) || reqs.IsRequired(MustParse("de")) {
		t.Fatal("de should be targeted but optional")
	}
}

func TestRequirementsRequiredWinsOnCollision(t *testing.T) {
	reqs := MustRequirements(map[string]bool{"fr-ca": false, "fr-CA": true})
	if reqs.Len() != 1 {
		t.Fatalf("expected a single targeted locale, got %d", reqs.Len())
	}
	if !reqs.IsRequired(MustParse("fr-CA")) {
		t.Fatal("expected fr-CA to be required")
	}
}

func TestNewRequirementsRejectsMalformedCodes(t *testing.T) {
	if _, err := NewRequirements(map[string]bool{"??": true}); !errors.Is(err, ErrInvalidLocale) {
		t.Fatalf("expected ErrInvalidLocale, got %v", err)
	}
}

type staticSource struct {
	reqs Requirements
}

func (s staticSource) LocaleRequirements() Requirements { return s.reqs }

func TestRegistryResolvesAndMemoises(t *testing.T) {
	registry := NewRegistry()

	got, err := registry.Resolve("fr", "fr", "ja")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !reflect.DeepEqual(Codes(got), []string{"fr", "fr", "ja"}) {
		t.Fatalf("Resolve() = %v", Codes(got))
	}
	if registry.Len() != 2 {
		t.Fatalf("expected 2 memoised codes, got %d", registry.Len())
	}

	if _, err := registry.Resolve("fr", ""); !errors.Is(err, ErrLocaleCodeRequired) {
		t.Fatalf("expected ErrLocaleCodeRequired, got %v", err)
	}

	source := staticSource{reqs: MustRequirements(map[string]bool{"fr": true, "de": false, "ja": true})}
	if got := Codes(registry.RequiredLocales(source)); !reflect.DeepEqual(got, []string{"fr", "ja"}) {
		t.Fatalf("RequiredLocales() = %v", got)
	}
	if got := registry.RequiredLocales(nil); got != nil {
		t.Fatalf("RequiredLocales(nil) = %v", got)
	}
}
